package sentiment

import (
	"strings"

	"github.com/dyike/CortexSI/models"
)

// IsSpam reports whether text contains any spam pattern, ignoring case.
func IsSpam(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range spamPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// FilterSpam returns the non-spam messages in their original order. The input
// slice is left untouched.
func FilterSpam(messages []models.Message) []models.Message {
	kept := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		if IsSpam(msg.Text) {
			continue
		}
		kept = append(kept, msg)
	}
	return kept
}
