package collectors

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/metrics"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/dataflows"
)

// PostSearcher runs one Reddit search.
type PostSearcher interface {
	Search(ctx context.Context, params dataflows.RedditSearchParams) ([]dataflows.RedditPost, error)
}

// RedditCollector searches all of Reddit, or only the configured subreddits.
type RedditCollector struct {
	searcher   PostSearcher
	subreddits []string
	timeFilter string
	limiter    *rate.Limiter
	opts       options
}

func NewRedditCollector(searcher PostSearcher, subreddits []string, opts ...Option) *RedditCollector {
	o := buildOptions(consts.SourceReddit, time.Second, opts)
	var cleaned []string
	for _, s := range subreddits {
		if s = strings.TrimPrefix(strings.TrimSpace(s), "r/"); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return &RedditCollector{
		searcher:   searcher,
		subreddits: cleaned,
		timeFilter: "month",
		limiter:    dataflows.NewIntervalLimiter(o.interval),
		opts:       o,
	}
}

func (rc *RedditCollector) SourceName() string { return consts.SourceReddit }

// Subreddits returns the search scope. Empty means all of Reddit.
func (rc *RedditCollector) Subreddits() []string {
	return append([]string(nil), rc.subreddits...)
}

// Collect runs one search per keyword. Posts are deduplicated by id across
// keywords, the first keyword to find a post keeps it, and the result is
// ordered by score.
func (rc *RedditCollector) Collect(ctx context.Context, req models.CollectRequest) (*models.CollectorResult, error) {
	limit := requestLimit(req)
	seen := make(map[string]struct{})
	byKeyword := make(map[string]int)
	var all []models.Message

	for _, term := range searchTerms(req) {
		if err := rc.limiter.Wait(ctx); err != nil {
			rc.opts.log.Warnw("reddit collection interrupted", "error", err)
			break
		}

		posts, err := rc.searcher.Search(ctx, dataflows.RedditSearchParams{
			Query:      term.keyword,
			Subreddits: rc.subreddits,
			Sort:       "relevance",
			Time:       rc.timeFilter,
			Limit:      limit,
		})
		if err != nil {
			metrics.IncRequestError(consts.SourceReddit)
			rc.opts.log.Warnw("reddit search failed", "keyword", term.keyword, "error", err)
			continue
		}
		byKeyword[term.keyword] = len(posts)

		for _, post := range posts {
			if _, dup := seen[post.ID]; dup {
				continue
			}
			text := strings.TrimSpace(post.Title + " " + post.Content)
			if text == "" {
				continue
			}
			seen[post.ID] = struct{}{}
			all = append(all, redditMessage(post, text, term))
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	direct, theme := countMatchTypes(all)
	rc.opts.log.Infow("reddit collection finished", "ticker", req.Ticker, "messages", len(all))

	return &models.CollectorResult{
		Source:   consts.SourceReddit,
		Ticker:   req.Ticker,
		Messages: nonNilMessages(all),
		Stats: models.CollectorStats{
			TotalMessages: len(all),
			DirectCount:   direct,
			ThemeCount:    theme,
			ByKeyword:     byKeyword,
		},
	}, nil
}

func redditMessage(post dataflows.RedditPost, text string, term searchTerm) models.Message {
	ts := post.CreatedAt.In(consts.KST)
	return models.Message{
		ID:             post.ID,
		Text:           text,
		Date:           ts.Format(consts.DateLayout),
		Timestamp:      ts,
		Source:         consts.SourceReddit,
		MatchType:      term.matchType,
		MatchedKeyword: term.keyword,
		Title:          post.Title,
		URL:            post.URL,
		Subreddit:      post.Subreddit,
		Author:         post.Author,
		Score:          post.Score,
		NumComments:    post.NumComments,
	}
}
