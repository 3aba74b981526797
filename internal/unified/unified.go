// Package unified runs every configured collector for one ticker and folds
// their output into a single scored result.
package unified

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/collectors"
	"github.com/dyike/CortexSI/internal/metrics"
	"github.com/dyike/CortexSI/internal/sentiment"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/dataflows"
	"github.com/dyike/CortexSI/pkg/logger"
)

type settings struct {
	telegramChannels []string
	redditEnabled    bool
	subreddits       []string
	naverEnabled     bool
	extra            []collectors.Collector

	httpConfig      dataflows.ClientConfig
	redditUserAgent string
	channelSearcher collectors.ChannelSearcher
	postSearcher    collectors.PostSearcher
	boardFetcher    collectors.BoardFetcher

	telegramInterval time.Duration
	redditInterval   time.Duration
	naverInterval    time.Duration
	intervalsSet     bool
	telegramMaxAge   time.Duration

	log *logger.Logger
	now func() time.Time
}

// Option configures a Collector.
type Option func(*settings)

// WithTelegram enables the Telegram collector for the given channels. It stays
// disabled when no channel is given.
func WithTelegram(channels ...string) Option {
	return func(s *settings) {
		s.telegramChannels = append(s.telegramChannels, channels...)
	}
}

// WithReddit enables the Reddit collector. Without subreddits it searches all
// of Reddit.
func WithReddit(subreddits ...string) Option {
	return func(s *settings) {
		s.redditEnabled = true
		s.subreddits = append(s.subreddits, subreddits...)
	}
}

// WithNaver toggles the Naver board collector, which is on by default.
func WithNaver(enabled bool) Option {
	return func(s *settings) {
		s.naverEnabled = enabled
	}
}

// WithCollectors registers additional collectors after the built-in ones. A
// collector whose source name is already registered is dropped.
func WithCollectors(extra ...collectors.Collector) Option {
	return func(s *settings) {
		s.extra = append(s.extra, extra...)
	}
}

// WithHTTPConfig sets timeout, user agent and retries of the built-in clients.
func WithHTTPConfig(cfg dataflows.ClientConfig) Option {
	return func(s *settings) {
		s.httpConfig = cfg
	}
}

// WithRedditUserAgent sets the User-Agent sent to Reddit, which rejects
// generic browser agents on its JSON API.
func WithRedditUserAgent(ua string) Option {
	return func(s *settings) {
		s.redditUserAgent = ua
	}
}

func WithTelegramSearcher(searcher collectors.ChannelSearcher) Option {
	return func(s *settings) {
		s.channelSearcher = searcher
	}
}

func WithRedditSearcher(searcher collectors.PostSearcher) Option {
	return func(s *settings) {
		s.postSearcher = searcher
	}
}

func WithBoardFetcher(fetcher collectors.BoardFetcher) Option {
	return func(s *settings) {
		s.boardFetcher = fetcher
	}
}

// WithRequestIntervals overrides the per-source politeness delays.
func WithRequestIntervals(telegram, reddit, naver time.Duration) Option {
	return func(s *settings) {
		s.telegramInterval = telegram
		s.redditInterval = reddit
		s.naverInterval = naver
		s.intervalsSet = true
	}
}

// WithTelegramMaxAge drops Telegram messages older than d.
func WithTelegramMaxAge(d time.Duration) Option {
	return func(s *settings) {
		s.telegramMaxAge = d
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// Collector fans a request out to its collectors and merges the results.
type Collector struct {
	collectors []collectors.Collector
	log        *logger.Logger
	now        func() time.Time
}

// New builds the collector set in the fixed order telegram, reddit, naver,
// then any extra collectors.
func New(opts ...Option) *Collector {
	s := settings{
		naverEnabled: true,
		httpConfig:   dataflows.DefaultClientConfig(),
		log:          logger.Get(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	common := []collectors.Option{collectors.WithLogger(s.log), collectors.WithClock(s.now)}
	withInterval := func(d time.Duration) []collectors.Option {
		if !s.intervalsSet {
			return common
		}
		return append(append([]collectors.Option(nil), common...), collectors.WithRequestInterval(d))
	}

	var list []collectors.Collector
	if len(s.telegramChannels) > 0 {
		searcher := s.channelSearcher
		if searcher == nil {
			searcher = dataflows.NewTelegramWebClient(s.httpConfig)
		}
		tgOpts := append(withInterval(s.telegramInterval), collectors.WithMaxAge(s.telegramMaxAge))
		list = append(list, collectors.NewTelegramCollector(searcher, s.telegramChannels, tgOpts...))
	}
	if s.redditEnabled {
		searcher := s.postSearcher
		if searcher == nil {
			cfg := s.httpConfig
			if s.redditUserAgent != "" {
				cfg.UserAgent = s.redditUserAgent
			}
			searcher = dataflows.NewRedditClient(cfg)
		}
		list = append(list, collectors.NewRedditCollector(searcher, s.subreddits, withInterval(s.redditInterval)...))
	}
	if s.naverEnabled {
		fetcher := s.boardFetcher
		if fetcher == nil {
			fetcher = dataflows.NewNaverBoardClient(s.httpConfig)
		}
		list = append(list, collectors.NewNaverCollector(fetcher, withInterval(s.naverInterval)...))
	}
	list = append(list, s.extra...)

	return &Collector{collectors: uniqueSources(list, s.log), log: s.log, now: s.now}
}

// uniqueSources keeps the first collector registered under each source name.
func uniqueSources(list []collectors.Collector, log *logger.Logger) []collectors.Collector {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, c := range list {
		name := c.SourceName()
		if seen[name] {
			log.Warnw("duplicate collector ignored", "source", name)
			continue
		}
		seen[name] = true
		out = append(out, c)
	}
	return out
}

// Sources lists the registered collector names in order.
func (u *Collector) Sources() []string {
	names := make([]string, len(u.collectors))
	for i, c := range u.collectors {
		names[i] = c.SourceName()
	}
	return names
}

type outcome struct {
	result *models.CollectorResult
	err    error
}

// Collect runs all collectors concurrently and never fails: a collector that
// errors or panics is logged and left out of Sources.
func (u *Collector) Collect(ctx context.Context, req models.CollectRequest) *models.UnifiedCollectionResult {
	start := time.Now()
	defer metrics.ObserveCollection(start)

	runID := uuid.NewString()
	log := u.log.With("run_id", runID, "ticker", req.Ticker)

	outcomes := make([]outcome, len(u.collectors))
	var wg sync.WaitGroup
	for i, c := range u.collectors {
		wg.Add(1)
		go func(i int, c collectors.Collector) {
			defer wg.Done()
			outcomes[i] = runCollector(ctx, c, req)
		}(i, c)
	}
	wg.Wait()

	sources := make([]models.CollectorResult, 0, len(u.collectors))
	for i, o := range outcomes {
		name := u.collectors[i].SourceName()
		if o.err != nil {
			metrics.IncCollectorFailure(name)
			log.Warnw("collector failed", "source", name, "error", o.err)
			continue
		}
		metrics.AddMessages(name, len(o.result.Messages))
		log.Infow("collector finished", "source", name, "messages", o.result.Stats.TotalMessages)
		sources = append(sources, *o.result)
	}

	result := Aggregate(req, sources)
	result.RunID = runID
	result.CollectedAt = u.now()

	if result.Stats.SpamRemoved > 0 {
		metrics.AddSpamRemoved(result.Stats.SpamRemoved)
		log.Infow("spam removed", "count", result.Stats.SpamRemoved)
	}
	log.Infow("collection finished",
		"sources", len(sources),
		"messages", result.Stats.TotalMessages,
		"label", result.Combined.SentimentLabel,
	)
	return result
}

func runCollector(ctx context.Context, c collectors.Collector, req models.CollectRequest) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("collector %s panicked: %v", c.SourceName(), r)}
		}
	}()

	result, err := c.Collect(ctx, req)
	if err != nil {
		return outcome{err: err}
	}
	if result == nil {
		return outcome{err: fmt.Errorf("collector %s returned no result", c.SourceName())}
	}
	return outcome{result: result}
}

// Aggregate merges collector results in the given order, drops spam and
// scores what is left.
func Aggregate(req models.CollectRequest, sources []models.CollectorResult) *models.UnifiedCollectionResult {
	var merged []models.Message
	bySource := make(map[string]int, len(sources))
	var direct, theme int
	for _, src := range sources {
		merged = append(merged, src.Messages...)
		bySource[src.Source] += src.Stats.TotalMessages
		direct += src.Stats.DirectCount
		theme += src.Stats.ThemeCount
	}

	filtered := sentiment.FilterSpam(merged)

	combined := models.CombinedResult{
		Messages:       filtered,
		SentimentLabel: consts.LabelNotAvailable,
		Rumors:         []models.ClassifiedMessage{},
		Facts:          []models.ClassifiedMessage{},
	}
	combined.Sentiment = sentiment.Analyze(filtered, true)
	if len(filtered) > 0 {
		combined.SentimentLabel = combined.Sentiment.Label()
	}

	var rumorCount int
	for _, msg := range filtered {
		c := sentiment.ClassifyRumor(msg.Text)
		entry := models.ClassifiedMessage{Message: msg, Confidence: c.Confidence}
		if c.IsRumor {
			rumorCount++
			if len(combined.Rumors) < consts.TopRumorLimit {
				combined.Rumors = append(combined.Rumors, entry)
			}
		} else if len(combined.Facts) < consts.TopRumorLimit {
			combined.Facts = append(combined.Facts, entry)
		}
	}

	var rumorRatio float64
	if len(filtered) > 0 {
		rumorRatio = float64(rumorCount) / float64(len(filtered))
	}

	return &models.UnifiedCollectionResult{
		Ticker:        req.Ticker,
		Aliases:       orEmpty(req.Aliases),
		ThemeKeywords: orEmpty(req.ThemeKeywords),
		Sources:       sources,
		Combined:      combined,
		Stats: models.UnifiedStats{
			TotalMessages: len(filtered),
			BySource:      bySource,
			DirectCount:   direct,
			ThemeCount:    theme,
			SpamRemoved:   len(merged) - len(filtered),
			RumorCount:    rumorCount,
			RumorRatio:    rumorRatio,
		},
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}
