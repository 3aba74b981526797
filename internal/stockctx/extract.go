// Package stockctx pulls ticker, names and keyword hints out of a prior
// stock analysis written in Markdown so a collection run can search for them.
package stockctx

import (
	"os"
	"regexp"
	"strings"

	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/errors"
)

const (
	maxBusinessKeywords = 15
	maxThemeKeywords    = 10
	maxRiskKeywords     = 10
	maxSummaryRunes     = 500
)

var (
	titleRe      = regexp.MustCompile(`#\s+(\S+)\s+\((\d{6})\)`)
	businessRe   = regexp.MustCompile(`\*\*사업 내용\*\*:\s*(.+)`)
	productRe    = regexp.MustCompile(`-\s+([^()\n]+)`)
	driverRe     = regexp.MustCompile(`(?m)\d+\.\s+([^(\n]+)`)
	meaningRe    = regexp.MustCompile(`전략적 의미:\s*(.+)`)
	tagsRe       = regexp.MustCompile(`\*Tags:\s*(.+)\*`)
	hashtagRe    = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	riskHeadRe   = regexp.MustCompile(`## \d+\. 리스크`)
	riskItemRe   = regexp.MustCompile(`\*\*(.+?)\*\*:`)
	bulletRe     = regexp.MustCompile(`-\s+(.+)`)
	conclusionRe = regexp.MustCompile(`## \d+\. 결론`)
	hangulRe     = regexp.MustCompile(`[가-힣]{2,}`)

	themePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(토큰증권|STO|조각투자|NFT|블록체인)`),
		regexp.MustCompile(`(?i)(ESG|친환경|신재생|2차전지|반도체|AI|메타버스)`),
		regexp.MustCompile(`(?i)(턴어라운드|구조조정|M&A|IPO)`),
	}

	stopwords = map[string]bool{
		"이다": true, "있다": true, "하다": true, "되다": true, "수준": true,
		"정도": true, "경우": true, "중심": true, "기반": true, "통한": true,
		"위한": true, "관련": true, "에서": true, "으로": true, "부터": true,
		"까지": true, "에게": true, "대한": true, "아닌": true, "같은": true,
	}
)

// ExtractFromFile reads an analysis file and extracts its context.
func ExtractFromFile(path string) (models.StockContext, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.StockContext{}, errors.Wrapf(errors.ErrNotFound, "analysis file %s", path)
		}
		return models.StockContext{}, errors.Wrapf(err, "read analysis file %s", path)
	}
	return Extract(string(content)), nil
}

// Extract parses an analysis document. Fields the document does not carry
// are left empty.
func Extract(content string) models.StockContext {
	ticker, name := title(content)
	return models.StockContext{
		Ticker:           ticker,
		StockName:        name,
		Aliases:          Aliases(name),
		BusinessKeywords: businessKeywords(content),
		ThemeKeywords:    themeKeywords(content),
		RiskKeywords:     riskKeywords(content),
		Summary:          summary(content),
	}
}

// ToSearchConfig merges business and theme keywords into one search list.
func ToSearchConfig(sc models.StockContext) models.SearchConfig {
	themes := newKeywordSet(0)
	themes.add(sc.BusinessKeywords...)
	themes.add(sc.ThemeKeywords...)
	return models.SearchConfig{
		Ticker:        sc.Ticker,
		StockName:     sc.StockName,
		Aliases:       append([]string{}, sc.Aliases...),
		ThemeKeywords: themes.list(),
	}
}

// Aliases derives search aliases from a stock name: the name itself, its
// first and last syllable for names longer than two, and K / K- spellings
// for names containing 케이.
func Aliases(name string) []string {
	if name == "" {
		return []string{}
	}
	aliases := []string{name}
	if runes := []rune(name); len(runes) > 2 {
		aliases = append(aliases, string(runes[0])+string(runes[len(runes)-1]))
	}
	if strings.Contains(name, "케이") {
		aliases = append(aliases, strings.ReplaceAll(name, "케이", "K"), strings.ReplaceAll(name, "케이", "K-"))
	}
	return aliases
}

func title(content string) (ticker, name string) {
	m := titleRe.FindStringSubmatch(content)
	if m == nil {
		return "", ""
	}
	return m[2], m[1]
}

func businessKeywords(content string) []string {
	set := newKeywordSet(maxBusinessKeywords)
	if overview, ok := section(content, "### 기업 개요", "###"); ok {
		if m := businessRe.FindStringSubmatch(overview); m != nil {
			set.add(nouns(m[1])...)
		}
		for _, m := range productRe.FindAllStringSubmatch(overview, -1) {
			set.add(nouns(m[1])...)
		}
	}
	if sector, ok := section(content, "### 산업 동향", "###"); ok {
		for _, m := range driverRe.FindAllStringSubmatch(sector, -1) {
			set.add(nouns(m[1])...)
		}
	}
	return set.list()
}

func themeKeywords(content string) []string {
	set := newKeywordSet(maxThemeKeywords)
	if news, ok := section(content, "### 최신 뉴스", "###"); ok {
		for _, m := range meaningRe.FindAllStringSubmatch(news, -1) {
			set.add(nouns(m[1])...)
		}
	}
	if m := tagsRe.FindStringSubmatch(content); m != nil {
		for _, tag := range hashtagRe.FindAllStringSubmatch(m[1], -1) {
			set.add(tag[1])
		}
	}
	for _, re := range themePatterns {
		for _, m := range re.FindAllString(content, -1) {
			if len([]rune(m)) <= 3 {
				m = strings.ToUpper(m)
			}
			set.add(m)
		}
	}
	return set.list()
}

func riskKeywords(content string) []string {
	set := newKeywordSet(maxRiskKeywords)
	if loc := riskHeadRe.FindStringIndex(content); loc != nil {
		risk := until(content[loc[0]:], loc[1]-loc[0], "##")
		for _, m := range riskItemRe.FindAllStringSubmatch(risk, -1) {
			set.add(m[1])
		}
	}
	if bearish, ok := section(content, "**Bearish**:", "**"); ok {
		for _, m := range bulletRe.FindAllStringSubmatch(bearish, -1) {
			words := nouns(m[1])
			set.add(words[:min(len(words), 2)]...)
		}
	}
	return set.list()
}

func summary(content string) string {
	if final, ok := section(content, "### 최종 요약\n", "\n**"); ok {
		text := strings.TrimPrefix(final, "### 최종 요약\n")
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	if loc := conclusionRe.FindStringIndex(content); loc != nil {
		conclusion := []rune(until(content[loc[0]:], loc[1]-loc[0], "##"))
		return string(conclusion[:min(len(conclusion), maxSummaryRunes)])
	}
	return ""
}

// section returns content from heading up to the next end marker found after
// the heading, or to the end of content.
func section(content, heading, end string) (string, bool) {
	start := strings.Index(content, heading)
	if start < 0 {
		return "", false
	}
	return until(content[start:], len(heading), end), true
}

func until(s string, skip int, end string) string {
	if i := strings.Index(s[skip:], end); i >= 0 {
		return s[:skip+i]
	}
	return s
}

func nouns(text string) []string {
	var out []string
	for _, w := range hangulRe.FindAllString(text, -1) {
		if !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// keywordSet keeps first-seen order and stops accepting at its cap.
type keywordSet struct {
	limit int
	seen  map[string]bool
	items []string
}

func newKeywordSet(limit int) *keywordSet {
	return &keywordSet{limit: limit, seen: make(map[string]bool)}
}

func (s *keywordSet) add(words ...string) {
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || s.seen[w] {
			continue
		}
		if s.limit > 0 && len(s.items) >= s.limit {
			return
		}
		s.seen[w] = true
		s.items = append(s.items, w)
	}
}

func (s *keywordSet) list() []string {
	return append([]string{}, s.items...)
}
