package collectors

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/metrics"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/dataflows"
)

// ChannelSearcher runs a server-side keyword search in one channel.
type ChannelSearcher interface {
	SearchChannel(ctx context.Context, channel, query string, limit int) ([]dataflows.TelegramPost, error)
}

// TelegramCollector searches a fixed list of public channels.
type TelegramCollector struct {
	searcher ChannelSearcher
	channels []string
	limiter  *rate.Limiter
	opts     options
}

// NewTelegramCollector searches channels in the given order. Names are
// trimmed of a leading @ and listed once.
func NewTelegramCollector(searcher ChannelSearcher, channels []string, opts ...Option) *TelegramCollector {
	o := buildOptions(consts.SourceTelegram, time.Second, opts)
	cleaned := make([]string, 0, len(channels))
	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		ch = strings.TrimPrefix(strings.TrimSpace(ch), "@")
		if ch == "" || seen[ch] {
			continue
		}
		seen[ch] = true
		cleaned = append(cleaned, ch)
	}
	return &TelegramCollector{
		searcher: searcher,
		channels: cleaned,
		limiter:  dataflows.NewIntervalLimiter(o.interval),
		opts:     o,
	}
}

func (tc *TelegramCollector) SourceName() string { return consts.SourceTelegram }

// Channels returns the configured channel names.
func (tc *TelegramCollector) Channels() []string {
	return append([]string(nil), tc.channels...)
}

// Collect searches every channel for every keyword. A failed search is logged
// and contributes nothing. Messages are deduplicated per channel and sorted
// newest first across channels.
func (tc *TelegramCollector) Collect(ctx context.Context, req models.CollectRequest) (*models.CollectorResult, error) {
	limit := requestLimit(req)
	terms := searchTerms(req)
	cutoff := time.Time{}
	if tc.opts.maxAge > 0 {
		cutoff = tc.opts.now().Add(-tc.opts.maxAge)
	}

	var all []models.Message
	perChannel := make(map[string]int, len(tc.channels))

	for _, channel := range tc.channels {
		seen := make(map[int64]struct{})
		var channelMessages []models.Message

		for _, term := range terms {
			if err := tc.limiter.Wait(ctx); err != nil {
				tc.opts.log.Warnw("telegram collection interrupted", "channel", channel, "error", err)
				break
			}

			posts, err := tc.searcher.SearchChannel(ctx, channel, term.keyword, limit)
			if err != nil {
				metrics.IncRequestError(consts.SourceTelegram)
				tc.opts.log.Warnw("telegram search failed", "channel", channel, "keyword", term.keyword, "error", err)
				continue
			}

			for _, post := range posts {
				if _, dup := seen[post.ID]; dup {
					continue
				}
				if strings.TrimSpace(post.Text) == "" {
					continue
				}
				if !cutoff.IsZero() && !post.Timestamp.IsZero() && post.Timestamp.Before(cutoff) {
					continue
				}
				seen[post.ID] = struct{}{}
				channelMessages = append(channelMessages, telegramMessage(post, channel, term))
			}
		}

		perChannel[channel] = len(channelMessages)
		all = append(all, channelMessages...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	direct, theme := countMatchTypes(all)
	tc.opts.log.Infow("telegram collection finished", "ticker", req.Ticker, "messages", len(all), "channels", len(tc.channels))

	return &models.CollectorResult{
		Source:   consts.SourceTelegram,
		Ticker:   req.Ticker,
		Messages: nonNilMessages(all),
		Stats: models.CollectorStats{
			TotalMessages: len(all),
			DirectCount:   direct,
			ThemeCount:    theme,
			Channels:      perChannel,
		},
	}, nil
}

func telegramMessage(post dataflows.TelegramPost, channel string, term searchTerm) models.Message {
	return models.Message{
		ID:             strconv.FormatInt(post.ID, 10),
		Text:           post.Text,
		Date:           post.Date,
		Timestamp:      post.Timestamp,
		Source:         consts.SourceTelegram,
		MatchType:      term.matchType,
		MatchedKeyword: term.keyword,
		URL:            post.URL,
		Channel:        channel,
		Views:          post.Views,
	}
}

func nonNilMessages(messages []models.Message) []models.Message {
	if messages == nil {
		return []models.Message{}
	}
	return messages
}
