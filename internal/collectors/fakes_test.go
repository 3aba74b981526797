package collectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/dyike/CortexSI/pkg/dataflows"
	"github.com/dyike/CortexSI/pkg/logger"
)

func quiet() []Option {
	return []Option{WithLogger(logger.Nop()), WithRequestInterval(0)}
}

type fakeChannelSearcher struct {
	mu      sync.Mutex
	results map[string][]dataflows.TelegramPost // channel + "|" + query
	fail    map[string]bool
	calls   []string
}

func (f *fakeChannelSearcher) SearchChannel(_ context.Context, channel, query string, _ int) ([]dataflows.TelegramPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := channel + "|" + query
	f.calls = append(f.calls, key)
	if f.fail[key] {
		return nil, fmt.Errorf("search %s failed", key)
	}
	return f.results[key], nil
}

type fakePostSearcher struct {
	results map[string][]dataflows.RedditPost
	fail    map[string]bool
	params  []dataflows.RedditSearchParams
}

func (f *fakePostSearcher) Search(_ context.Context, params dataflows.RedditSearchParams) ([]dataflows.RedditPost, error) {
	f.params = append(f.params, params)
	if f.fail[params.Query] {
		return nil, fmt.Errorf("search %s failed", params.Query)
	}
	return f.results[params.Query], nil
}

type fakeBoardFetcher struct {
	pages  map[int][]dataflows.BoardPost
	failAt int
	calls  []int
}

func (f *fakeBoardFetcher) FetchBoardPage(_ context.Context, _ string, page int) ([]dataflows.BoardPost, error) {
	f.calls = append(f.calls, page)
	if f.failAt != 0 && page == f.failAt {
		return nil, fmt.Errorf("page %d failed", page)
	}
	return f.pages[page], nil
}
