// Package report renders unified collection results as Korean Markdown
// reports. Full produces the sectioned SI+ report, ContextAware a narrative
// report driven by a stock context.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/sentiment"
	"github.com/dyike/CortexSI/models"
)

// FileName is the name reports are saved under.
const FileName = "SI_PLUS_REPORT.md"

const (
	sufficientMessages = 10
	abundantMessages   = 50
	rumorWarnRatio     = 0.2
	highRumorRatio     = 0.1
	lowRumorRatio      = 0.3
)

// Reliability grades a rumor ratio: below 10% is high, below 30% medium.
func Reliability(rumorRatio float64) string {
	switch {
	case rumorRatio < highRumorRatio:
		return consts.ReliabilityHigh
	case rumorRatio < lowRumorRatio:
		return consts.ReliabilityMedium
	default:
		return consts.ReliabilityLow
	}
}

// ThemeCount is the number of combined messages matched through one theme keyword.
type ThemeCount struct {
	Keyword string
	Count   int
}

// ThemeTrend counts theme matches per keyword, most mentioned first. Ties keep
// first-seen order.
func ThemeTrend(messages []models.Message) []ThemeCount {
	var trend []ThemeCount
	index := make(map[string]int)
	for _, msg := range messages {
		if msg.MatchType != consts.MatchTheme {
			continue
		}
		kw := msg.MatchedKeyword
		if kw == "" {
			kw = "기타"
		}
		if i, ok := index[kw]; ok {
			trend[i].Count++
			continue
		}
		index[kw] = len(trend)
		trend = append(trend, ThemeCount{Keyword: kw, Count: 1})
	}
	sort.SliceStable(trend, func(i, j int) bool { return trend[i].Count > trend[j].Count })
	return trend
}

type sourceTotals struct {
	total, direct, theme int
}

func writeSourceTable(b *strings.Builder, sources []models.CollectorResult) sourceTotals {
	b.WriteString("| 소스 | 수집량 | 직접 매칭 | 테마 매칭 |\n")
	b.WriteString("|------|--------|----------|----------|\n")
	var t sourceTotals
	for _, src := range sources {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", capitalize(src.Source),
			humanize.Comma(int64(src.Stats.TotalMessages)),
			humanize.Comma(int64(src.Stats.DirectCount)),
			humanize.Comma(int64(src.Stats.ThemeCount)))
		t.total += src.Stats.TotalMessages
		t.direct += src.Stats.DirectCount
		t.theme += src.Stats.ThemeCount
	}
	fmt.Fprintf(b, "| **합계** | **%s** | **%s** | **%s** |\n\n",
		humanize.Comma(int64(t.total)), humanize.Comma(int64(t.direct)), humanize.Comma(int64(t.theme)))
	return t
}

// percent formats n/total as a one-decimal percentage; zero totals give "0.0%".
func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 1).
		StringFixed(1) + "%"
}

func ratioPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func signed(score float64) string {
	return fmt.Sprintf("%+.2f", score)
}

func quote(text string, limit int) string {
	return "\"" + strings.Join(strings.Fields(sentiment.Truncate(text, limit)), " ") + "\""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func stamp(now time.Time) string {
	return now.In(consts.KST).Format("2006-01-02 15:04")
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func head(items []string, n int) []string {
	return items[:min(len(items), n)]
}

func filterDigests(digests []models.MessageDigest, matchType string) []models.MessageDigest {
	var out []models.MessageDigest
	for _, d := range digests {
		if d.MatchType == matchType {
			out = append(out, d)
		}
	}
	return out
}
