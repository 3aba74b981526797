// Command dataflow calls one source client and prints what it returns, for
// checking selectors and endpoints against the live sites.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dyike/CortexSI/config"
	"github.com/dyike/CortexSI/pkg/dataflows"
	"github.com/dyike/CortexSI/pkg/logger"
)

func main() {
	source := flag.String("source", "naver", "naver, reddit, telegram or yahoo")
	ticker := flag.String("ticker", "005930", "KRX ticker")
	query := flag.String("query", "", "search query (ticker when empty)")
	channel := flag.String("channel", "", "Telegram channel")
	subreddit := flag.String("subreddit", "", "subreddit (all of Reddit when empty)")
	page := flag.Int("page", 1, "Naver board page")
	limit := flag.Int("limit", 10, "result limit")
	flag.Parse()

	cfg := config.DefaultConfig()
	if err := logger.Init(cfg.LogLevel, cfg.LogEnv); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
	}
	defer logger.Sync()

	q := *query
	if q == "" {
		q = *ticker
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var (
		out any
		err error
	)
	httpCfg := cfg.HTTPClientConfig()
	switch *source {
	case "naver":
		out, err = dataflows.NewNaverBoardClient(httpCfg).FetchBoardPage(ctx, *ticker, *page)
	case "reddit":
		httpCfg.UserAgent = cfg.RedditUserAgent
		params := dataflows.RedditSearchParams{Query: q, Limit: *limit}
		if *subreddit != "" {
			params.Subreddits = []string{*subreddit}
		}
		out, err = dataflows.NewRedditClient(httpCfg).Search(ctx, params)
	case "telegram":
		if *channel == "" {
			logger.Fatalf("-channel is required for telegram")
		}
		out, err = dataflows.NewTelegramWebClient(httpCfg).SearchChannel(ctx, *channel, q, *limit)
	case "yahoo":
		out, err = dataflows.NewYahooFinanceClient().LookupName(*ticker)
	default:
		logger.Fatalf("unknown source %q", *source)
	}
	if err != nil {
		logger.Fatalf("%s request failed: %v", *source, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatalf("encode: %v", err)
	}
}
