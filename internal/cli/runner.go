package cli

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dyike/CortexSI/config"
	"github.com/dyike/CortexSI/internal/stockctx"
	"github.com/dyike/CortexSI/internal/unified"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/dataflows"
	"github.com/dyike/CortexSI/pkg/errors"
	"github.com/dyike/CortexSI/pkg/logger"
)

var tickerPattern = regexp.MustCompile(`^\d{6}$`)

// validateTicker accepts six-digit KRX codes.
func validateTicker(ticker string) error {
	if !tickerPattern.MatchString(strings.TrimSpace(ticker)) {
		return errors.Wrapf(errors.ErrInvalidInput, "ticker %q must be a 6-digit KRX code", ticker)
	}
	return nil
}

// runInput is one collection request as the commands see it.
type runInput struct {
	Ticker     string
	StockName  string
	Aliases    []string
	Themes     []string
	Channels   []string
	Limit      int
	NoTelegram bool
	NoReddit   bool
	NoNaver    bool
}

type nameLookup interface {
	LookupName(ticker string) (string, error)
}

// runner turns configuration plus a runInput into a unified collection run.
type runner struct {
	cfg    *config.Config
	log    *logger.Logger
	lookup nameLookup
	now    func() time.Time
	// channels is set when the runner comes from a resolved config snapshot
	channels []string
	resolved bool
	// extra is appended to the collector options, tests use it to swap sources
	extra []unified.Option
}

func newRunner(cfg *config.Config) *runner {
	return &runner{
		cfg:    cfg,
		log:    logger.Get(),
		lookup: dataflows.NewYahooFinanceClient(),
		now:    time.Now,
	}
}

// newSnapshotRunner reuses the channels a config snapshot already resolved.
func newSnapshotRunner(snap config.Snapshot) *runner {
	cfg := snap.Config
	r := newRunner(&cfg)
	r.channels = snap.Channels
	r.resolved = true
	return r
}

func (r *runner) telegramChannels() ([]string, error) {
	if r.resolved {
		return append([]string(nil), r.channels...), nil
	}
	channels, _, err := r.cfg.ResolveTelegramChannels()
	return channels, err
}

// resolveName returns given, or the listed name of ticker, or ticker itself.
func (r *runner) resolveName(ticker, given string) string {
	if name := strings.TrimSpace(given); name != "" {
		return name
	}
	if r.lookup == nil {
		return ticker
	}
	name, err := r.lookup.LookupName(ticker)
	if err != nil {
		r.log.Warnw("stock name lookup failed", "ticker", ticker, "error", err)
		return ticker
	}
	return name
}

func (r *runner) request(in runInput) models.CollectRequest {
	aliases := in.Aliases
	if len(aliases) == 0 && in.StockName != "" && in.StockName != in.Ticker {
		aliases = stockctx.Aliases(in.StockName)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = r.cfg.LimitPerSource
	}
	return models.CollectRequest{
		Ticker:        in.Ticker,
		Aliases:       aliases,
		ThemeKeywords: in.Themes,
		Limit:         limit,
	}
}

func (r *runner) collector(in runInput) (*unified.Collector, error) {
	channels, err := r.telegramChannels()
	if err != nil {
		return nil, err
	}
	channels = append(channels, in.Channels...)
	if in.NoTelegram {
		channels = nil
	}

	tg, rd, nv := r.cfg.RequestIntervals()
	opts := []unified.Option{
		unified.WithLogger(r.log),
		unified.WithClock(r.now),
		unified.WithHTTPConfig(r.cfg.HTTPClientConfig()),
		unified.WithRedditUserAgent(r.cfg.RedditUserAgent),
		unified.WithRequestIntervals(tg, rd, nv),
		unified.WithTelegramMaxAge(r.cfg.TelegramMaxAge()),
		unified.WithTelegram(channels...),
		unified.WithNaver(r.cfg.NaverEnabled && !in.NoNaver),
	}
	if r.cfg.RedditEnabled && !in.NoReddit {
		opts = append(opts, unified.WithReddit(r.cfg.RedditSubreddits...))
	}
	opts = append(opts, r.extra...)
	return unified.New(opts...), nil
}

// collect validates the input and runs every enabled source once.
func (r *runner) collect(ctx context.Context, in runInput) (*models.UnifiedCollectionResult, error) {
	if err := validateTicker(in.Ticker); err != nil {
		return nil, err
	}
	u, err := r.collector(in)
	if err != nil {
		return nil, fmt.Errorf("build collectors: %w", err)
	}
	req := r.request(in)
	r.log.Infow("collection started",
		"ticker", req.Ticker,
		"sources", u.Sources(),
		"aliases", req.Aliases,
		"themes", len(req.ThemeKeywords),
	)
	return u.Collect(ctx, req), nil
}
