package unified

import (
	"fmt"
	"strings"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/sentiment"
	"github.com/dyike/CortexSI/models"
)

const reportThemeLimit = 5

// GenerateReport renders a unified result as a Korean Markdown summary.
func GenerateReport(result *models.UnifiedCollectionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# SI+ 통합 센티먼트 리포트: %s\n\n", result.Ticker)

	if len(result.Aliases) > 0 {
		fmt.Fprintf(&b, "**검색어**: %s\n", strings.Join(result.Aliases, ", "))
	}
	if len(result.ThemeKeywords) > 0 {
		themes := result.ThemeKeywords
		suffix := ""
		if len(themes) > reportThemeLimit {
			themes = themes[:reportThemeLimit]
			suffix = "..."
		}
		fmt.Fprintf(&b, "**테마 키워드**: %s%s\n", strings.Join(themes, ", "), suffix)
	}
	b.WriteString("\n")

	b.WriteString("## 소스별 수집 현황\n\n")
	b.WriteString("| 소스 | 메시지 수 | 직접 | 테마 |\n")
	b.WriteString("|------|----------|------|------|\n")
	var total, direct, theme int
	for _, src := range result.Sources {
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n",
			src.Source, src.Stats.TotalMessages, src.Stats.DirectCount, src.Stats.ThemeCount)
		total += src.Stats.TotalMessages
		direct += src.Stats.DirectCount
		theme += src.Stats.ThemeCount
	}
	fmt.Fprintf(&b, "| **합계** | **%d** | **%d** | **%d** |\n\n", total, direct, theme)

	if result.Stats.SpamRemoved > 0 {
		fmt.Fprintf(&b, "스팸 제거: %d건\n\n", result.Stats.SpamRemoved)
	}

	s := result.Combined.Sentiment
	b.WriteString("## 통합 센티먼트\n\n")
	fmt.Fprintf(&b, "**%s** (점수: %+.2f)\n\n", result.Combined.SentimentLabel, s.Score)
	b.WriteString("| 구분 | 수량 | 비율 |\n")
	b.WriteString("|------|------|------|\n")
	analyzed := result.Stats.TotalMessages
	fmt.Fprintf(&b, "| 상승 | %d | %.1f%% |\n", s.BullishCount, percent(s.BullishCount, analyzed))
	fmt.Fprintf(&b, "| 하락 | %d | %.1f%% |\n", s.BearishCount, percent(s.BearishCount, analyzed))
	fmt.Fprintf(&b, "| 중립 | %d | %.1f%% |\n\n", s.NeutralCount, percent(s.NeutralCount, analyzed))

	writeDigests(&b, "### 주요 상승 의견", s.TopBullish)
	writeDigests(&b, "### 주요 하락 의견", s.TopBearish)

	if len(result.Combined.Rumors) > 0 {
		fmt.Fprintf(&b, "### 루머 의심 메시지 (%d건, %.1f%%)\n\n",
			result.Stats.RumorCount, result.Stats.RumorRatio*100)
		for _, r := range result.Combined.Rumors {
			fmt.Fprintf(&b, "- [%s] %s (신뢰도: %.2f)\n", r.Source, oneLine(sentiment.Truncate(r.Text, consts.DigestTextLimit)), r.Confidence)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeDigests(b *strings.Builder, heading string, digests []models.MessageDigest) {
	if len(digests) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	for _, d := range digests {
		fmt.Fprintf(b, "- [%s] %s\n", d.Source, oneLine(d.Text))
		if len(d.Keywords) > 0 {
			fmt.Fprintf(b, "  - 키워드: %s\n", strings.Join(d.Keywords, ", "))
		}
	}
	b.WriteString("\n")
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
