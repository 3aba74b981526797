package models

import "time"

type CombinedResult struct {
	Messages       []Message           `json:"messages"`
	Sentiment      SentimentResult     `json:"sentiment"`
	SentimentLabel string              `json:"sentiment_label"`
	Rumors         []ClassifiedMessage `json:"rumors"`
	Facts          []ClassifiedMessage `json:"facts"`
}

// UnifiedStats mixes post-filter totals with pre-filter per-source counts:
// TotalMessages counts combined messages after spam removal, while BySource,
// DirectCount and ThemeCount come straight from the collectors.
type UnifiedStats struct {
	TotalMessages int            `json:"total_messages"`
	BySource      map[string]int `json:"by_source"`
	DirectCount   int            `json:"direct_count"`
	ThemeCount    int            `json:"theme_count"`
	SpamRemoved   int            `json:"spam_removed"`
	RumorCount    int            `json:"rumor_count"`
	RumorRatio    float64        `json:"rumor_ratio"`
}

type UnifiedCollectionResult struct {
	RunID         string            `json:"run_id"`
	Ticker        string            `json:"ticker"`
	Aliases       []string          `json:"aliases"`
	ThemeKeywords []string          `json:"theme_keywords"`
	Sources       []CollectorResult `json:"sources"`
	Combined      CombinedResult    `json:"combined"`
	Stats         UnifiedStats      `json:"stats"`
	CollectedAt   time.Time         `json:"collected_at"`
}
