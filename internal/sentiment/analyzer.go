package sentiment

import (
	"github.com/shopspring/decimal"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/models"
)

// Analyze classifies every message and aggregates the result.
//
// A message is bullish when it contains more distinct bullish keywords than
// bearish ones, bearish in the opposite case and neutral otherwise. Top lists
// always put direct matches ahead of theme matches. With prioritizeDirect the
// list is filled from direct entries first and backfilled from theme entries;
// without it the grouped list is cut to size.
func Analyze(messages []models.Message, prioritizeDirect bool) models.SentimentResult {
	var (
		bullish, bearish, neutral int
		bullDirect, bullTheme     []models.MessageDigest
		bearDirect, bearTheme     []models.MessageDigest
	)

	for _, msg := range messages {
		bullHits := matchedKeywords(msg.Text, bullishKeywords)
		bearHits := matchedKeywords(msg.Text, bearishKeywords)

		switch {
		case len(bullHits) > len(bearHits):
			bullish++
			digest := newDigest(msg, bullHits)
			if digest.MatchType == consts.MatchDirect {
				bullDirect = append(bullDirect, digest)
			} else {
				bullTheme = append(bullTheme, digest)
			}
		case len(bearHits) > len(bullHits):
			bearish++
			digest := newDigest(msg, bearHits)
			if digest.MatchType == consts.MatchDirect {
				bearDirect = append(bearDirect, digest)
			} else {
				bearTheme = append(bearTheme, digest)
			}
		default:
			neutral++
		}
	}

	total := len(messages)
	return models.SentimentResult{
		Score:         score(bullish, bearish, total),
		BullishCount:  bullish,
		BearishCount:  bearish,
		NeutralCount:  neutral,
		TotalMessages: total,
		TopBullish:    selectTop(bullDirect, bullTheme, prioritizeDirect),
		TopBearish:    selectTop(bearDirect, bearTheme, prioritizeDirect),
	}
}

// Label returns the sentiment label for a score.
func Label(score float64) string {
	return models.ScoreLabel(score)
}

func score(bullish, bearish, total int) float64 {
	if total == 0 {
		return 0
	}
	raw := decimal.NewFromInt(int64(bullish - bearish)).
		DivRound(decimal.NewFromInt(int64(total)), 3)
	f, _ := raw.Float64()
	return f
}

func newDigest(msg models.Message, keywords []string) models.MessageDigest {
	matchType := msg.MatchType
	if matchType == "" {
		matchType = consts.MatchDirect
	}
	return models.MessageDigest{
		Text:           Truncate(msg.Text, consts.DigestTextLimit),
		Date:           msg.Date,
		Source:         msg.Source,
		MatchType:      matchType,
		MatchedKeyword: msg.MatchedKeyword,
		Keywords:       keywords,
	}
}

func selectTop(direct, theme []models.MessageDigest, prioritizeDirect bool) []models.MessageDigest {
	limit := consts.TopDigestLimit
	top := make([]models.MessageDigest, 0, limit)

	if prioritizeDirect {
		top = append(top, direct[:min(len(direct), limit)]...)
		if remaining := limit - len(top); remaining > 0 {
			top = append(top, theme[:min(len(theme), remaining)]...)
		}
		return top
	}

	top = append(top, direct...)
	top = append(top, theme...)
	return top[:min(len(top), limit)]
}

// Truncate cuts s to limit runes and appends "..." when anything was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
