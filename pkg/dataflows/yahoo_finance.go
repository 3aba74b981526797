package dataflows

import (
	"fmt"
	"strings"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"github.com/dyike/CortexSI/pkg/errors"
)

// QuoteFetcher is the slice of the finance-go quote API the lookup needs.
type QuoteFetcher func(symbol string) (*finance.Quote, error)

// YahooFinanceClient resolves Korean tickers to display names
type YahooFinanceClient struct {
	fetch QuoteFetcher
}

// NewYahooFinanceClient creates a client backed by finance-go
func NewYahooFinanceClient() *YahooFinanceClient {
	return &YahooFinanceClient{fetch: quote.Get}
}

// NewYahooFinanceClientWith uses a custom fetcher
func NewYahooFinanceClientWith(fetch QuoteFetcher) *YahooFinanceClient {
	return &YahooFinanceClient{fetch: fetch}
}

// LookupName tries the KOSPI (.KS) listing first, then KOSDAQ (.KQ).
func (yf *YahooFinanceClient) LookupName(ticker string) (string, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "ticker cannot be empty")
	}

	var lastErr error
	for _, suffix := range []string{".KS", ".KQ"} {
		symbol := ticker + suffix
		q, err := yf.fetch(symbol)
		if err != nil {
			lastErr = err
			continue
		}
		if q == nil {
			continue
		}
		if name := strings.TrimSpace(q.ShortName); name != "" {
			return name, nil
		}
	}

	if lastErr != nil {
		return "", errors.Wrapf(errors.ErrSourceUnavailable, "lookup %s: %v", ticker, lastErr)
	}
	return "", errors.Wrap(errors.ErrNotFound, fmt.Sprintf("no listing for %s", ticker))
}
