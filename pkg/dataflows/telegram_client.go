package dataflows

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/pkg/errors"
)

const (
	telegramWebURL     = "https://t.me"
	telegramMaxPages   = 5
	telegramPageLength = 20
)

// TelegramWebClient searches public channels through the t.me/s web preview,
// which needs no account or session.
type TelegramWebClient struct {
	client  *resty.Client
	baseURL string
	retry   *RetryConfig
}

// TelegramPost is one channel message returned by a search
type TelegramPost struct {
	ID        int64     `json:"id"`
	Channel   string    `json:"channel"`
	Text      string    `json:"text"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"-"`
	Views     int       `json:"views"`
	URL       string    `json:"url"`
}

func NewTelegramWebClient(cfg ClientConfig) *TelegramWebClient {
	cfg = cfg.withDefaults(telegramWebURL)
	return &TelegramWebClient{
		client:  newRestyClient(cfg),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		retry:   cfg.Retry,
	}
}

// SearchChannel returns up to limit messages of channel matching query,
// newest first. Older pages are requested with the "before" cursor until the
// limit is reached or the channel runs out of hits.
func (tc *TelegramWebClient) SearchChannel(ctx context.Context, channel, query string, limit int) ([]TelegramPost, error) {
	channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
	if channel == "" || strings.TrimSpace(query) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "channel and query are required")
	}
	if limit <= 0 {
		limit = telegramPageLength
	}

	var (
		posts  []TelegramPost
		before int64
	)
	for page := 0; page < telegramMaxPages && len(posts) < limit; page++ {
		batch, err := tc.fetchPage(ctx, channel, query, before)
		if err != nil {
			if len(posts) > 0 {
				break
			}
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		posts = append(posts, batch...)
		oldest := batch[0].ID
		for _, p := range batch {
			if p.ID < oldest {
				oldest = p.ID
			}
		}
		if before != 0 && oldest >= before {
			break
		}
		before = oldest
	}

	sort.SliceStable(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (tc *TelegramWebClient) fetchPage(ctx context.Context, channel, query string, before int64) ([]TelegramPost, error) {
	var body string
	err := WithRetry(ctx, tc.retry, func() error {
		req := tc.client.R().SetContext(ctx).SetQueryParam("q", query)
		if before > 0 {
			req.SetQueryParam("before", strconv.FormatInt(before, 10))
		}
		resp, err := req.Get(tc.baseURL + "/s/" + channel)
		if err != nil {
			return errors.Wrapf(errors.ErrSourceUnavailable, "search telegram channel %s: %v", channel, err)
		}
		if err := checkStatus(resp, "search telegram channel "+channel); err != nil {
			return err
		}
		body = resp.String()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ParseTelegramPage(strings.NewReader(body), channel)
}

// ParseTelegramPage extracts messages from a t.me/s page. Messages without
// text (media only) are dropped.
func ParseTelegramPage(r io.Reader, channel string) ([]TelegramPost, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "parse telegram html: %v", err)
	}

	var posts []TelegramPost
	doc.Find(".tgme_widget_message[data-post]").Each(func(_ int, s *goquery.Selection) {
		id := parsePostID(s.AttrOr("data-post", ""))
		if id == 0 {
			return
		}

		textSel := s.Find(".tgme_widget_message_text").First()
		textSel.Find("br").ReplaceWithHtml("\n")
		text := strings.TrimSpace(textSel.Text())
		if text == "" {
			return
		}

		post := TelegramPost{
			ID:      id,
			Channel: channel,
			Text:    text,
			Views:   ParseCompactNumber(s.Find(".tgme_widget_message_views").First().Text()),
			URL:     s.Find("a.tgme_widget_message_date").AttrOr("href", ""),
		}
		if raw, ok := s.Find("time[datetime]").First().Attr("datetime"); ok {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				post.Timestamp = ts.In(consts.KST)
				post.Date = post.Timestamp.Format(consts.DateLayout)
			}
		}
		posts = append(posts, post)
	})

	return posts, nil
}

// parsePostID reads "channel/123" into 123.
func parsePostID(dataPost string) int64 {
	idx := strings.LastIndex(dataPost, "/")
	if idx < 0 {
		return 0
	}
	id, err := strconv.ParseInt(dataPost[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
