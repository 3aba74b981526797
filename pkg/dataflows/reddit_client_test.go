package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexSI/pkg/errors"
)

const redditFixture = `{
  "kind": "Listing",
  "data": {
    "after": null,
    "children": [
      {"kind": "t3", "data": {"id": "abc", "title": "Samsung 급등", "selftext": "body", "permalink": "/r/korea/comments/abc/", "subreddit": "korea", "author": "kim", "score": 42, "num_comments": 7, "created_utc": 1705300000}},
      {"kind": "t1", "data": {"id": "comment"}},
      {"kind": "t3", "data": {"id": "def", "title": "second", "selftext": "", "permalink": "/r/stocks/comments/def/", "subreddit": "stocks", "score": 3, "created_utc": 1705200000}}
    ]
  }
}`

func testConfig(url string) ClientConfig {
	return ClientConfig{Timeout: 2 * time.Second, BaseURL: url, Retry: NoRetry()}
}

func TestRedditSearchGlobal(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(redditFixture))
	}))
	defer srv.Close()

	client := NewRedditClient(testConfig(srv.URL))
	posts, err := client.Search(context.Background(), RedditSearchParams{Query: "005930", Limit: 500})
	require.NoError(t, err)

	assert.Equal(t, "/search.json", gotPath)
	assert.Equal(t, "005930", gotQuery["q"][0])
	assert.Equal(t, "100", gotQuery["limit"][0])
	assert.Equal(t, "month", gotQuery["t"][0])
	assert.Equal(t, "relevance", gotQuery["sort"][0])
	assert.NotContains(t, gotQuery, "restrict_sr")

	require.Len(t, posts, 2)
	assert.Equal(t, "abc", posts[0].ID)
	assert.Equal(t, "Samsung 급등", posts[0].Title)
	assert.Equal(t, "body", posts[0].Content)
	assert.Equal(t, 42, posts[0].Score)
	assert.Equal(t, 7, posts[0].NumComments)
	assert.Equal(t, "https://www.reddit.com/r/korea/comments/abc/", posts[0].URL)
	assert.Equal(t, int64(1705300000), posts[0].CreatedAt.Unix())
}

func TestRedditSearchSubreddits(t *testing.T) {
	var gotPath, restrict string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		restrict = r.URL.Query().Get("restrict_sr")
		_, _ = w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer srv.Close()

	client := NewRedditClient(testConfig(srv.URL))
	posts, err := client.Search(context.Background(), RedditSearchParams{
		Query:      "삼성전자",
		Subreddits: []string{"korea", "stocks"},
	})
	require.NoError(t, err)

	assert.Empty(t, posts)
	assert.Equal(t, "/r/korea+stocks/search.json", gotPath)
	assert.Equal(t, "true", restrict)
}

func TestRedditSearchErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewRedditClient(testConfig(srv.URL))

	_, err := client.Search(context.Background(), RedditSearchParams{Query: "x"})
	assert.True(t, errors.Is(err, errors.ErrRateLimited))

	status = http.StatusOK
	_, err = client.Search(context.Background(), RedditSearchParams{Query: "x"})
	assert.True(t, errors.Is(err, errors.ErrParse))

	_, err = client.Search(context.Background(), RedditSearchParams{Query: "  "})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestRedditSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(redditFixture))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 100 * time.Millisecond
	client := NewRedditClient(cfg)

	start := time.Now()
	posts, err := client.Search(context.Background(), RedditSearchParams{Query: "005930"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
	assert.Nil(t, posts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithRetryStopsOnParseError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}, func() error {
		calls++
		return errors.Wrap(errors.ErrParse, "bad payload")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecovers(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}, func() error {
		calls++
		if calls < 3 {
			return errors.ErrSourceUnavailable
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, &RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}, func() error {
		return errors.ErrSourceUnavailable
	})
	assert.Error(t, err)
}
