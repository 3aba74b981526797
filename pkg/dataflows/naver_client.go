package dataflows

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/pkg/errors"
)

const naverFinanceURL = "https://finance.naver.com"

var naverPostIDPattern = regexp.MustCompile(`nid=(\d+)`)

// NaverBoardClient reads the per-ticker discussion board (종토방) of Naver Finance
type NaverBoardClient struct {
	client  *resty.Client
	baseURL string
	retry   *RetryConfig
	now     func() time.Time
}

// BoardPost is one row of the discussion board listing
type BoardPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"-"`
	Views     int       `json:"views"`
	Likes     int       `json:"likes"`
	URL       string    `json:"url"`
}

// NewNaverBoardClient creates a new board client
func NewNaverBoardClient(cfg ClientConfig) *NaverBoardClient {
	cfg = cfg.withDefaults(naverFinanceURL)
	return &NaverBoardClient{
		client:  newRestyClient(cfg),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		retry:   cfg.Retry,
		now:     time.Now,
	}
}

// FetchBoardPage fetches one listing page. A page without the listing table
// yields no posts and no error.
func (nc *NaverBoardClient) FetchBoardPage(ctx context.Context, code string, page int) ([]BoardPost, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "ticker code cannot be empty")
	}

	var body []byte
	var contentType string
	err := WithRetry(ctx, nc.retry, func() error {
		resp, err := nc.client.R().
			SetContext(ctx).
			SetQueryParam("code", code).
			SetQueryParam("page", fmt.Sprintf("%d", page)).
			Get(nc.baseURL + "/item/board.naver")
		if err != nil {
			return errors.Wrapf(errors.ErrSourceUnavailable, "fetch naver board: %v", err)
		}
		if err := checkStatus(resp, "fetch naver board"); err != nil {
			return err
		}
		body = resp.Body()
		contentType = resp.Header().Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The board is served as EUC-KR.
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "decode naver board: %v", err)
	}
	return ParseBoardPage(reader, nc.baseURL, nc.now())
}

// ParseBoardPage extracts posts from a board listing. Divider rows and rows
// without a title link are skipped.
func ParseBoardPage(r io.Reader, baseURL string, now time.Time) ([]BoardPost, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "parse naver board html: %v", err)
	}

	table := doc.Find("table.type2").First()
	if table.Length() == 0 {
		return nil, nil
	}

	var posts []BoardPost
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 5 {
			return
		}

		link := row.Find("td.title a").First()
		if link.Length() == 0 {
			return
		}
		title := strings.TrimSpace(link.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" {
			return
		}

		href := link.AttrOr("href", "")
		date, ts := NormalizeBoardDate(strings.TrimSpace(cols.Eq(0).Text()), now)

		fullURL := href
		if strings.HasPrefix(href, "/") {
			fullURL = baseURL + href
		}

		posts = append(posts, BoardPost{
			ID:        ExtractBoardPostID(href),
			Title:     title,
			Author:    strings.TrimSpace(cols.Eq(2).Text()),
			Date:      date,
			Timestamp: ts,
			Views:     ParseNumber(cols.Eq(3).Text()),
			Likes:     ParseNumber(cols.Eq(4).Text()),
			URL:       fullURL,
		})
	})

	return posts, nil
}

// ExtractBoardPostID pulls the nid query value out of a post link, falling back
// to the link itself.
func ExtractBoardPostID(href string) string {
	if m := naverPostIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return href
}

// NormalizeBoardDate turns "2024.01.15 12:30" and "01.15 12:30" into
// "2024-01-15 12:30:00". Short dates take the year from now. Unknown formats
// are returned as-is with a zero time.
func NormalizeBoardDate(raw string, now time.Time) (string, time.Time) {
	raw = strings.Join(strings.Fields(raw), " ")

	if t, err := time.ParseInLocation("2006.01.02 15:04", raw, consts.KST); err == nil {
		return t.Format(consts.DateLayout), t
	}
	if t, err := time.ParseInLocation("01.02 15:04", raw, consts.KST); err == nil {
		t = time.Date(now.In(consts.KST).Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, consts.KST)
		return t.Format(consts.DateLayout), t
	}
	return raw, time.Time{}
}
