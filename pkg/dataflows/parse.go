package dataflows

import (
	"strconv"
	"strings"
)

// ParseNumber reads "1,234" style counts. Anything unparseable is 0.
func ParseNumber(text string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

// ParseCompactNumber reads view counters such as "950", "1.2K" or "3M".
func ParseCompactNumber(text string) int {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if cleaned == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(cleaned, "K"):
		multiplier = 1e3
		cleaned = strings.TrimSuffix(cleaned, "K")
	case strings.HasSuffix(cleaned, "M"):
		multiplier = 1e6
		cleaned = strings.TrimSuffix(cleaned, "M")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int(f*multiplier + 0.5)
}
