package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dyike/CortexSI/pkg/errors"
)

const redditBaseURL = "https://www.reddit.com"

// RedditClient searches public Reddit listings without authentication
type RedditClient struct {
	client  *resty.Client
	baseURL string
	retry   *RetryConfig
}

// NewRedditClient creates a new Reddit client
func NewRedditClient(cfg ClientConfig) *RedditClient {
	cfg = cfg.withDefaults(redditBaseURL)
	return &RedditClient{
		client:  newRestyClient(cfg),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		retry:   cfg.Retry,
	}
}

// RedditSearchParams represents parameters for Reddit search
type RedditSearchParams struct {
	Query      string   `json:"query"`
	Subreddits []string `json:"subreddits"` // empty searches all of Reddit
	Sort       string   `json:"sort"`       // relevance, hot, top, new, comments
	Time       string   `json:"time"`       // hour, day, week, month, year, all
	Limit      int      `json:"limit"`
}

// RedditResponse represents the API response structure
type RedditResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string        `json:"after"`
		Children []RedditChild `json:"children"`
	} `json:"data"`
}

// RedditChild represents a Reddit post wrapper
type RedditChild struct {
	Kind string         `json:"kind"`
	Data RedditPostData `json:"data"`
}

// RedditPostData represents Reddit post data from API
type RedditPostData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

// RedditPost is a flattened search hit
type RedditPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Subreddit   string    `json:"subreddit"`
	Author      string    `json:"author"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at"`
}

// Search runs one search request. Results keep Reddit's ordering.
func (rc *RedditClient) Search(ctx context.Context, params RedditSearchParams) ([]RedditPost, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "search query cannot be empty")
	}

	if params.Sort == "" {
		params.Sort = "relevance"
	}
	if params.Time == "" {
		params.Time = "month"
	}
	if params.Limit <= 0 {
		params.Limit = 25
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	searchURL := rc.buildSearchURL(params)

	var redditResp RedditResponse
	err := WithRetry(ctx, rc.retry, func() error {
		resp, err := rc.client.R().SetContext(ctx).Get(searchURL)
		if err != nil {
			return errors.Wrapf(errors.ErrSourceUnavailable, "search reddit: %v", err)
		}
		if err := checkStatus(resp, "search reddit"); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body(), &redditResp); err != nil {
			return errors.Wrapf(errors.ErrParse, "decode reddit json: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rc.convertToRedditPosts(redditResp.Data.Children), nil
}

// buildSearchURL constructs the Reddit search URL
func (rc *RedditClient) buildSearchURL(params RedditSearchParams) string {
	values := url.Values{}
	values.Set("q", params.Query)
	values.Set("sort", params.Sort)
	values.Set("t", params.Time)
	values.Set("limit", fmt.Sprintf("%d", params.Limit))

	if len(params.Subreddits) == 0 {
		return fmt.Sprintf("%s/search.json?%s", rc.baseURL, values.Encode())
	}

	values.Set("restrict_sr", "true")
	scope := url.PathEscape(strings.Join(params.Subreddits, "+"))
	return fmt.Sprintf("%s/r/%s/search.json?%s", rc.baseURL, scope, values.Encode())
}

// convertToRedditPosts converts Reddit API response to RedditPost structs
func (rc *RedditClient) convertToRedditPosts(children []RedditChild) []RedditPost {
	posts := make([]RedditPost, 0, len(children))

	for _, child := range children {
		if child.Kind != "t3" { // t3 is the Reddit kind for posts
			continue
		}

		data := child.Data
		posts = append(posts, RedditPost{
			ID:          data.ID,
			Title:       data.Title,
			Content:     data.Selftext,
			URL:         redditBaseURL + data.Permalink,
			Subreddit:   data.Subreddit,
			Author:      data.Author,
			Score:       data.Score,
			NumComments: data.NumComments,
			CreatedAt:   time.Unix(int64(data.CreatedUTC), 0),
		})
	}

	return posts
}
