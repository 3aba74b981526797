package collectors

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/metrics"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/dataflows"
)

const (
	naverPageSize = 20
	naverMaxPages = 10
)

// BoardFetcher reads one page of a ticker's discussion board.
type BoardFetcher interface {
	FetchBoardPage(ctx context.Context, code string, page int) ([]dataflows.BoardPost, error)
}

// NaverCollector scrapes the Naver Finance discussion board. The board is
// already scoped to the ticker, so every post is a direct match; theme
// keywords only mark copies in Stats.ThemeMatches.
type NaverCollector struct {
	fetcher BoardFetcher
	limiter *rate.Limiter
	opts    options
}

func NewNaverCollector(fetcher BoardFetcher, opts ...Option) *NaverCollector {
	o := buildOptions(consts.SourceNaver, 300*time.Millisecond, opts)
	if o.maxPages == 0 {
		o.maxPages = naverMaxPages
	}
	return &NaverCollector{
		fetcher: fetcher,
		limiter: dataflows.NewIntervalLimiter(o.interval),
		opts:    o,
	}
}

func (nc *NaverCollector) SourceName() string { return consts.SourceNaver }

// Collect pages through the board until limit posts are read, a page comes
// back empty or a page fails. A failure keeps what was read so far.
func (nc *NaverCollector) Collect(ctx context.Context, req models.CollectRequest) (*models.CollectorResult, error) {
	limit := requestLimit(req)
	posts := nc.fetchBoard(ctx, req.Ticker, limit)

	messages := make([]models.Message, 0, len(posts))
	for _, post := range posts {
		messages = append(messages, naverMessage(post, req.Ticker))
	}

	var themeMatches []models.Message
	for _, kw := range req.ThemeKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		for _, msg := range messages {
			if strings.Contains(msg.Title, kw) {
				themeMatches = append(themeMatches, msg.Tagged(consts.MatchTheme, kw))
			}
		}
	}

	nc.opts.log.Infow("naver collection finished", "ticker", req.Ticker, "messages", len(messages), "theme_matches", len(themeMatches))

	return &models.CollectorResult{
		Source:   consts.SourceNaver,
		Ticker:   req.Ticker,
		Messages: messages,
		Stats: models.CollectorStats{
			TotalMessages: len(messages),
			DirectCount:   len(messages),
			ThemeCount:    len(themeMatches),
			ThemeMatches:  themeMatches,
		},
	}, nil
}

func (nc *NaverCollector) fetchBoard(ctx context.Context, ticker string, limit int) []dataflows.BoardPost {
	maxPages := min(limit/naverPageSize+1, nc.opts.maxPages)

	var posts []dataflows.BoardPost
	for page := 1; page <= maxPages && len(posts) < limit; page++ {
		if err := nc.limiter.Wait(ctx); err != nil {
			nc.opts.log.Warnw("naver collection interrupted", "page", page, "error", err)
			break
		}

		batch, err := nc.fetcher.FetchBoardPage(ctx, ticker, page)
		if err != nil {
			metrics.IncRequestError(consts.SourceNaver)
			nc.opts.log.Warnw("naver board page failed", "ticker", ticker, "page", page, "error", err)
			break
		}
		if len(batch) == 0 {
			break
		}
		posts = append(posts, batch...)
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

func naverMessage(post dataflows.BoardPost, ticker string) models.Message {
	return models.Message{
		ID:             post.ID,
		Text:           post.Title,
		Date:           post.Date,
		Timestamp:      post.Timestamp,
		Source:         consts.SourceNaver,
		MatchType:      consts.MatchDirect,
		MatchedKeyword: ticker,
		Title:          post.Title,
		URL:            post.URL,
		Author:         post.Author,
		Views:          post.Views,
		Score:          post.Likes,
	}
}
