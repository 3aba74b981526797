package models

import "time"

// Message is one post, comment or channel message matched by a collector.
type Message struct {
	ID             string    `json:"id,omitempty"`
	Text           string    `json:"text"`
	Date           string    `json:"date"`
	Timestamp      time.Time `json:"-"`
	Source         string    `json:"source"`
	MatchType      string    `json:"match_type"`
	MatchedKeyword string    `json:"matched_keyword"`

	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Subreddit   string `json:"subreddit,omitempty"`
	Author      string `json:"author,omitempty"`
	Views       int    `json:"views,omitempty"`
	Forwards    int    `json:"forwards,omitempty"`
	Score       int    `json:"score,omitempty"`
	NumComments int    `json:"num_comments,omitempty"`
}

// Tagged returns a copy of m carrying the given match type and keyword.
func (m Message) Tagged(matchType, keyword string) Message {
	m.MatchType = matchType
	m.MatchedKeyword = keyword
	return m
}

// CollectRequest is the input every collector receives.
type CollectRequest struct {
	Ticker        string   `json:"ticker"`
	Aliases       []string `json:"aliases,omitempty"`
	ThemeKeywords []string `json:"theme_keywords,omitempty"`
	Limit         int      `json:"limit"`
}

// CollectorStats holds per-source counters. Sources fill the optional maps
// they have data for.
type CollectorStats struct {
	TotalMessages int            `json:"total_messages"`
	DirectCount   int            `json:"direct_count"`
	ThemeCount    int            `json:"theme_count"`
	Channels      map[string]int `json:"channels,omitempty"`
	ByKeyword     map[string]int `json:"by_keyword,omitempty"`
	ThemeMatches  []Message      `json:"theme_matches,omitempty"`
}

// CollectorResult is the outcome of one collector run.
type CollectorResult struct {
	Source   string         `json:"source"`
	Ticker   string         `json:"ticker"`
	Messages []Message      `json:"messages"`
	Stats    CollectorStats `json:"stats"`
}
