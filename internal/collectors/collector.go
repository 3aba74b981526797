// Package collectors turns source clients into tagged message lists. Each
// collector searches one source for a ticker, its aliases and theme keywords
// and reports per-source statistics.
package collectors

import (
	"context"
	"strings"
	"time"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/logger"
)

// Collector is one message source.
type Collector interface {
	SourceName() string
	Collect(ctx context.Context, req models.CollectRequest) (*models.CollectorResult, error)
}

const defaultLimit = 50

type options struct {
	log         *logger.Logger
	interval    time.Duration
	intervalSet bool
	maxAge      time.Duration
	maxPages    int
	now         func() time.Time
}

// Option tunes a collector.
type Option func(*options)

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRequestInterval sets the pause between two requests to the same source.
// Zero disables the pause.
func WithRequestInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
		o.intervalSet = true
	}
}

// WithMaxAge drops messages older than d. Only the Telegram collector uses it.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) {
		o.maxAge = d
	}
}

// WithMaxPages caps board pagination. Only the Naver collector uses it.
func WithMaxPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPages = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(source string, defaultInterval time.Duration, opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.intervalSet {
		o.interval = defaultInterval
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	o.log = o.log.With("source", source)
	return o
}

type searchTerm struct {
	keyword   string
	matchType string
}

// searchTerms lists the ticker and aliases as direct terms followed by theme
// keywords. Blank and repeated keywords are skipped; the first role wins.
func searchTerms(req models.CollectRequest) []searchTerm {
	seen := make(map[string]struct{})
	var terms []searchTerm
	add := func(kw, matchType string) {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		terms = append(terms, searchTerm{keyword: kw, matchType: matchType})
	}

	add(req.Ticker, consts.MatchDirect)
	for _, alias := range req.Aliases {
		add(alias, consts.MatchDirect)
	}
	for _, kw := range req.ThemeKeywords {
		add(kw, consts.MatchTheme)
	}
	return terms
}

func requestLimit(req models.CollectRequest) int {
	if req.Limit > 0 {
		return req.Limit
	}
	return defaultLimit
}

func countMatchTypes(messages []models.Message) (direct, theme int) {
	for _, m := range messages {
		if m.MatchType == consts.MatchTheme {
			theme++
		} else {
			direct++
		}
	}
	return direct, theme
}

// FilterByTicker keeps messages mentioning the ticker or an alias and tags
// them as direct matches on the first keyword found.
func FilterByTicker(messages []models.Message, ticker string, aliases []string) []models.Message {
	keywords := append([]string{ticker}, aliases...)
	filtered := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(msg.Text, kw) {
				filtered = append(filtered, msg.Tagged(consts.MatchDirect, kw))
				break
			}
		}
	}
	return filtered
}
