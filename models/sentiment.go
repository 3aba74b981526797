package models

import (
	"encoding/json"

	"github.com/dyike/CortexSI/consts"
)

// MessageDigest is the shortened form of a message kept in top lists.
type MessageDigest struct {
	Text           string   `json:"text"`
	Date           string   `json:"date"`
	Source         string   `json:"source"`
	MatchType      string   `json:"match_type"`
	MatchedKeyword string   `json:"matched_keyword"`
	Keywords       []string `json:"keywords"`
}

type SentimentResult struct {
	Score         float64         `json:"score"`
	BullishCount  int             `json:"bullish_count"`
	BearishCount  int             `json:"bearish_count"`
	NeutralCount  int             `json:"neutral_count"`
	TotalMessages int             `json:"total_messages"`
	TopBullish    []MessageDigest `json:"top_bullish"`
	TopBearish    []MessageDigest `json:"top_bearish"`
}

// Label maps the score onto Bullish, Bearish or Neutral.
func (s SentimentResult) Label() string {
	return ScoreLabel(s.Score)
}

// ScoreLabel applies the ±0.3 thresholds; both bounds are inclusive.
func ScoreLabel(score float64) string {
	switch {
	case score >= consts.BullishThreshold:
		return consts.LabelBullish
	case score <= consts.BearishThreshold:
		return consts.LabelBearish
	default:
		return consts.LabelNeutral
	}
}

type RumorIndicators struct {
	Rumor []string `json:"rumor"`
	Fact  []string `json:"fact"`
}

// RumorClassification is nil-Indicators when nothing matched.
type RumorClassification struct {
	IsRumor    bool             `json:"is_rumor"`
	Confidence float64          `json:"confidence"`
	Indicators *RumorIndicators `json:"indicators"`
}

// MarshalJSON renders missing indicators as an empty list.
func (r RumorClassification) MarshalJSON() ([]byte, error) {
	var indicators any = []string{}
	if r.Indicators != nil {
		indicators = r.Indicators
	}
	return json.Marshal(struct {
		IsRumor    bool    `json:"is_rumor"`
		Confidence float64 `json:"confidence"`
		Indicators any     `json:"indicators"`
	}{r.IsRumor, r.Confidence, indicators})
}

// ClassifiedMessage pairs a message with its rumor classification.
type ClassifiedMessage struct {
	Message
	Confidence float64 `json:"confidence"`
}
