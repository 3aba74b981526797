package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/sentiment"
	"github.com/dyike/CortexSI/models"
)

const (
	fullOpinionLimit = 5
	fullRumorLimit   = 5
	fullSampleLimit  = 10
	fullOpinionText  = 80
	fullRumorText    = 60
	fullSampleText   = 100
)

// Full renders the nine-section SI+ report for one unified result.
func Full(stockName string, result *models.UnifiedCollectionResult, now time.Time) string {
	var b strings.Builder
	s := result.Combined.Sentiment
	label := result.Combined.SentimentLabel
	stats := result.Stats

	fmt.Fprintf(&b, "# %s (%s) SI+ 센티먼트 리포트\n\n", stockName, result.Ticker)
	fmt.Fprintf(&b, "> 분석일: %s KST | 소스: %s\n\n", stamp(now), joinOr(sourceNames(result.Sources), "없음"))
	b.WriteString("---\n\n")

	b.WriteString("## 1. 수집 요약\n\n")
	b.WriteString("### 검색 조건\n\n")
	b.WriteString("| 항목 | 값 |\n|------|-----|\n")
	fmt.Fprintf(&b, "| 종목코드 | %s |\n", result.Ticker)
	fmt.Fprintf(&b, "| 종목명 | %s |\n", stockName)
	fmt.Fprintf(&b, "| 별칭 | %s |\n", joinOr(result.Aliases, "-"))
	fmt.Fprintf(&b, "| 테마 키워드 | %s |\n\n", joinOr(result.ThemeKeywords, "-"))
	b.WriteString("### 소스별 수집 현황\n\n")
	totals := writeSourceTable(&b, result.Sources)
	if stats.SpamRemoved > 0 {
		fmt.Fprintf(&b, "스팸 제거: %s건\n\n", humanize.Comma(int64(stats.SpamRemoved)))
	}
	b.WriteString("---\n\n")

	b.WriteString("## 2. 통합 센티먼트\n\n")
	fmt.Fprintf(&b, "**센티먼트: %s** (점수: %s)\n\n", label, signed(s.Score))
	b.WriteString("| 구분 | 수량 | 비율 |\n|------|------|------|\n")
	fmt.Fprintf(&b, "| 상승 의견 | %d | %s |\n", s.BullishCount, percent(s.BullishCount, s.TotalMessages))
	fmt.Fprintf(&b, "| 하락 의견 | %d | %s |\n", s.BearishCount, percent(s.BearishCount, s.TotalMessages))
	fmt.Fprintf(&b, "| 중립 | %d | %s |\n", s.NeutralCount, percent(s.NeutralCount, s.TotalMessages))
	fmt.Fprintf(&b, "| 루머 비율 | - | %s |\n\n", ratioPercent(stats.RumorRatio))
	b.WriteString("### 센티먼트 기준\n\n")
	b.WriteString("| 점수 | 레이블 |\n|------|--------|\n")
	b.WriteString("| +0.3 이상 | Bullish |\n")
	b.WriteString("| -0.3 ~ +0.3 | Neutral |\n")
	b.WriteString("| -0.3 이하 | Bearish |\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## 3. 소스별 분석\n\n")
	for _, src := range result.Sources {
		if len(src.Messages) == 0 {
			continue
		}
		ss := sentiment.Analyze(src.Messages, false)
		fmt.Fprintf(&b, "### %s\n\n", capitalize(src.Source))
		fmt.Fprintf(&b, "- **센티먼트**: %s (%s)\n", ss.Label(), signed(ss.Score))
		fmt.Fprintf(&b, "- **메시지 수**: %s개\n", humanize.Comma(int64(len(src.Messages))))
		fmt.Fprintf(&b, "- **상승/하락/중립**: %d/%d/%d\n\n", ss.BullishCount, ss.BearishCount, ss.NeutralCount)
	}
	b.WriteString("---\n\n")

	b.WriteString("## 4. 주요 상승 의견\n\n")
	writeOpinions(&b, s.TopBullish, "_상승 의견 없음_")
	b.WriteString("---\n\n")

	b.WriteString("## 5. 주요 하락 의견\n\n")
	writeOpinions(&b, s.TopBearish, "_하락 의견 없음_")
	b.WriteString("---\n\n")

	b.WriteString("## 6. 루머 체크 (검증 필요)\n\n")
	rumors := result.Combined.Rumors
	if len(rumors) == 0 {
		b.WriteString("_감지된 루머 없음_\n")
	}
	for _, r := range rumors[:min(len(rumors), fullRumorLimit)] {
		fmt.Fprintf(&b, "- [ ] [%s] %s\n", r.Source, quote(r.Text, fullRumorText))
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## 7. 테마 트렌드\n\n")
	fmt.Fprintf(&b, "검색된 테마 키워드: **%s**\n\n", joinOr(result.ThemeKeywords, "-"))
	if trend := ThemeTrend(result.Combined.Messages); len(trend) > 0 {
		b.WriteString("| 테마 | 언급 수 |\n|------|---------|\n")
		for _, tc := range trend {
			fmt.Fprintf(&b, "| %s | %d |\n", tc.Keyword, tc.Count)
		}
	} else {
		b.WriteString("_테마 키워드 매칭 없음 (직접 매칭만 존재)_\n")
	}
	b.WriteString("\n---\n\n")

	fmt.Fprintf(&b, "## 8. 샘플 메시지 (최근 %d개)\n\n", fullSampleLimit)
	samples := result.Combined.Messages[:min(len(result.Combined.Messages), fullSampleLimit)]
	if len(samples) == 0 {
		b.WriteString("_수집된 메시지 없음_\n\n")
	}
	for i, msg := range samples {
		date := msg.Date
		if date == "" {
			date = consts.LabelNotAvailable
		}
		matchType := msg.MatchType
		if matchType == "" {
			matchType = consts.MatchDirect
		}
		fmt.Fprintf(&b, "**[%d] %s** - %s\n", i+1, capitalize(msg.Source), date)
		fmt.Fprintf(&b, "- 매칭: %s (%s)\n", matchType, msg.MatchedKeyword)
		fmt.Fprintf(&b, "- 내용: %s\n\n", sentiment.Truncate(msg.Text, fullSampleText))
	}
	b.WriteString("---\n\n")

	b.WriteString("## 9. 종합 판단\n\n")
	sufficiency := "부족"
	if stats.TotalMessages >= sufficientMessages {
		sufficiency = "충분"
	}
	b.WriteString("| 항목 | 판단 |\n|------|------|\n")
	fmt.Fprintf(&b, "| **센티먼트** | %s (%s) |\n", label, signed(s.Score))
	fmt.Fprintf(&b, "| **신뢰도** | %s (루머 %s) |\n", Reliability(stats.RumorRatio), ratioPercent(stats.RumorRatio))
	fmt.Fprintf(&b, "| **데이터 충분성** | %s (%d개) |\n\n", sufficiency, stats.TotalMessages)

	if warnings := Warnings(stats.TotalMessages, stats.RumorRatio, totals.direct); len(warnings) > 0 {
		b.WriteString("### 주의사항\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- ⚠️ %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("*Generated by SI+ (Sentiment Intelligence Plus) Agent*\n")
	return b.String()
}

// Warnings lists the caveats attached to a result's overall judgement.
func Warnings(totalMessages int, rumorRatio float64, directCount int) []string {
	var warnings []string
	if totalMessages < sufficientMessages {
		warnings = append(warnings, "데이터 부족으로 신뢰도 낮음")
	}
	if rumorRatio > rumorWarnRatio {
		warnings = append(warnings, "루머 비율 높음, 검증 필요")
	}
	if directCount == 0 {
		warnings = append(warnings, "직접 매칭 없음 (테마 키워드만 매칭)")
	}
	return warnings
}

func writeOpinions(b *strings.Builder, digests []models.MessageDigest, empty string) {
	if len(digests) == 0 {
		b.WriteString(empty + "\n\n")
		return
	}
	for _, d := range digests[:min(len(digests), fullOpinionLimit)] {
		fmt.Fprintf(b, "- [%s] %s\n", d.Source, quote(d.Text, fullOpinionText))
		fmt.Fprintf(b, "  - 키워드: %s\n", strings.Join(d.Keywords, ", "))
	}
	b.WriteString("\n")
}

func sourceNames(sources []models.CollectorResult) []string {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, capitalize(src.Source))
	}
	return names
}
