package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/models"
)

const (
	contextOpinionLimit = 3
	contextThemeLimit   = 7
	contextOpinionText  = 60
	contextRumorText    = 50
	contextSummaryText  = 100
)

// ContextAware renders a narrative report that reads the result against a
// prior analysis of the stock.
func ContextAware(sc models.StockContext, result *models.UnifiedCollectionResult, now time.Time) string {
	var b strings.Builder
	s := result.Combined.Sentiment
	label := result.Combined.SentimentLabel
	stats := result.Stats
	total := stats.TotalMessages

	fmt.Fprintf(&b, "# %s (%s) SI+ 센티먼트 분석\n\n", sc.StockName, sc.Ticker)
	fmt.Fprintf(&b, "> 분석일: %s KST | Context-Aware Mode\n\n", stamp(now))
	b.WriteString("---\n\n")

	b.WriteString("## Executive Summary\n\n")
	if total > 0 {
		fmt.Fprintf(&b, "**%s**에 대한 커뮤니티 센티먼트는 **%s** (점수: %s)입니다.\n\n", sc.StockName, label, signed(s.Score))
		if stats.DirectCount > 0 {
			fmt.Fprintf(&b, "- 종목 직접 언급: **%d건** (종목명/코드 매칭)\n", stats.DirectCount)
		}
		if stats.ThemeCount > 0 {
			fmt.Fprintf(&b, "- 연관 테마 언급: **%d건** (%s 등)\n", stats.ThemeCount, strings.Join(head(sc.ThemeKeywords, 3), ", "))
		}
		b.WriteString("\n")
		b.WriteString(Mood(s.BullishCount, s.BearishCount) + "\n")
	} else {
		fmt.Fprintf(&b, "**%s**에 대한 커뮤니티 데이터가 부족합니다.\n\n", sc.StockName)
		b.WriteString("- 소형주 특성상 개인 투자자 관심이 낮을 수 있습니다.\n")
		b.WriteString("- 테마 키워드를 통한 간접 분석을 권장합니다.\n")
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## 데이터 수집 현황\n\n")
	writeSourceTable(&b, result.Sources)
	b.WriteString("---\n\n")

	b.WriteString("## 센티먼트 분석\n\n")
	fmt.Fprintf(&b, "### 종합 점수: **%s** (%s)\n\n", label, signed(s.Score))
	if total > 0 {
		b.WriteString("| 의견 | 비율 |\n|------|------|\n")
		fmt.Fprintf(&b, "| 🟢 상승 | %s (%d건) |\n", percent(s.BullishCount, total), s.BullishCount)
		fmt.Fprintf(&b, "| 🔴 하락 | %s (%d건) |\n", percent(s.BearishCount, total), s.BearishCount)
		fmt.Fprintf(&b, "| ⚪ 중립 | %s (%d건) |\n\n", percent(s.NeutralCount, total), s.NeutralCount)
	}
	b.WriteString("---\n\n")

	b.WriteString("## 주요 의견\n\n")
	directBull := filterDigests(s.TopBullish, consts.MatchDirect)
	directBear := filterDigests(s.TopBearish, consts.MatchDirect)
	themeBull := filterDigests(s.TopBullish, consts.MatchTheme)
	themeBear := filterDigests(s.TopBearish, consts.MatchTheme)

	if len(directBull)+len(directBear) > 0 {
		b.WriteString("### 종목 직접 언급\n\n")
		writeSignals(&b, "**상승 의견:**", directBull, func(d models.MessageDigest) string { return d.Source })
		writeSignals(&b, "**하락 의견:**", directBear, func(d models.MessageDigest) string { return d.Source })
	}
	if len(themeBull)+len(themeBear) > 0 {
		b.WriteString("### 연관 테마 동향\n\n")
		fmt.Fprintf(&b, "검색 테마: %s\n\n", strings.Join(head(sc.ThemeKeywords, 5), ", "))
		writeSignals(&b, "**긍정적 시그널:**", themeBull, func(d models.MessageDigest) string { return d.MatchedKeyword })
		writeSignals(&b, "**부정적 시그널:**", themeBear, func(d models.MessageDigest) string { return d.MatchedKeyword })
	}
	if len(directBull)+len(directBear)+len(themeBull)+len(themeBear) == 0 {
		b.WriteString("_의미 있는 의견이 수집되지 않았습니다._\n\n")
	}
	b.WriteString("---\n\n")

	b.WriteString("## 테마 트렌드\n\n")
	if trend := ThemeTrend(result.Combined.Messages); len(trend) > 0 {
		var themeTotal int
		for _, tc := range trend {
			themeTotal += tc.Count
		}
		b.WriteString("| 테마 | 언급 수 | 비중 |\n|------|---------|------|\n")
		for _, tc := range trend[:min(len(trend), contextThemeLimit)] {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", tc.Keyword, tc.Count, percent(tc.Count, themeTotal))
		}
		fmt.Fprintf(&b, "\n가장 활발한 테마는 **%s**로, 관련 논의가 활발합니다.\n", trend[0].Keyword)
	} else {
		b.WriteString("_테마 키워드 매칭 없음_\n")
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## 정보 신뢰도\n\n")
	fmt.Fprintf(&b, "루머 비율: **%s**\n\n", ratioPercent(stats.RumorRatio))
	switch Reliability(stats.RumorRatio) {
	case consts.ReliabilityHigh:
		b.WriteString("✅ 대부분 신뢰할 수 있는 정보입니다.\n")
	case consts.ReliabilityMedium:
		b.WriteString("⚠️ 일부 확인되지 않은 정보가 포함되어 있습니다.\n")
	default:
		b.WriteString("🚨 루머 비율이 높습니다. 교차 검증이 필요합니다.\n")
	}
	if rumors := result.Combined.Rumors; len(rumors) > 0 {
		b.WriteString("\n**검증 필요:**\n")
		for _, r := range rumors[:min(len(rumors), contextOpinionLimit)] {
			fmt.Fprintf(&b, "- %s\n", quote(r.Text, contextRumorText))
		}
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## 종합 판단\n\n")
	b.WriteString("| 항목 | 판단 |\n|------|------|\n")
	fmt.Fprintf(&b, "| 센티먼트 | %s (%s) |\n", label, signed(s.Score))
	fmt.Fprintf(&b, "| 데이터 충분성 | %s (%d건) |\n", sufficiencyGrade(total), total)
	if total > 0 {
		fmt.Fprintf(&b, "| 직접 언급 비율 | %s |\n", percent(stats.DirectCount, total))
	} else {
		fmt.Fprintf(&b, "| 직접 언급 비율 | %s |\n", consts.LabelNotAvailable)
	}
	fmt.Fprintf(&b, "| 정보 신뢰도 | %s |\n\n", reliabilityKo(stats.RumorRatio))

	if sc.Summary != "" {
		b.WriteString("### 기존 분석과의 연계\n\n")
		fmt.Fprintf(&b, "기존 분석에서는 %s로 평가했습니다.\n\n", quote(sc.Summary, contextSummaryText))
		b.WriteString(Consistency(s.Score, sc.Summary) + "\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("*Generated by SI+ Context-Aware Agent*\n")
	return b.String()
}

// Mood describes which side dominates: one side needs more than twice the
// other's count.
func Mood(bullish, bearish int) string {
	switch {
	case bullish > bearish*2:
		return "전반적으로 **긍정적** 분위기가 우세합니다."
	case bearish > bullish*2:
		return "전반적으로 **부정적** 분위기가 우세합니다."
	default:
		return "**중립적** 분위기로, 뚜렷한 방향성이 없습니다."
	}
}

// Consistency compares community sentiment with a prior analysis summary.
func Consistency(score float64, summary string) string {
	switch {
	case score > consts.BullishThreshold && strings.Contains(summary, "적자"):
		return "⚠️ 커뮤니티 센티먼트는 긍정적이나, 재무 상황(적자)과 괴리가 있습니다."
	case score < consts.BearishThreshold && strings.Contains(summary, "회복"):
		return "⚠️ 커뮤니티 센티먼트는 부정적이나, 펀더멘털 회복 조짐과 괴리가 있습니다."
	default:
		return "센티먼트가 기존 분석 방향과 일관성이 있습니다."
	}
}

func sufficiencyGrade(total int) string {
	switch {
	case total >= abundantMessages:
		return "충분"
	case total >= sufficientMessages:
		return "보통"
	default:
		return "부족"
	}
}

func reliabilityKo(rumorRatio float64) string {
	switch Reliability(rumorRatio) {
	case consts.ReliabilityHigh:
		return "높음"
	case consts.ReliabilityMedium:
		return "보통"
	default:
		return "낮음"
	}
}

func writeSignals(b *strings.Builder, heading string, digests []models.MessageDigest, tag func(models.MessageDigest) string) {
	if len(digests) == 0 {
		return
	}
	b.WriteString(heading + "\n")
	for _, d := range digests[:min(len(digests), contextOpinionLimit)] {
		fmt.Fprintf(b, "- [%s] %s\n", tag(d), quote(d.Text, contextOpinionText))
	}
	b.WriteString("\n")
}

