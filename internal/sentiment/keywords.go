// Package sentiment scores Korean retail-investor chatter: keyword based
// bullish/bearish counting, rumor versus fact classification and spam removal.
package sentiment

import (
	"fmt"
	"slices"
	"strings"
)

var bullishKeywords = []string{
	"급등", "상한가", "폭등", "대박", "상승", "매수", "추천", "목표가 상향",
	"호재", "돌파", "신고가", "기대", "좋아", "긍정", "오를", "상향",
	"강추", "존버", "가즈아", "풀매수", "물타기", "반등", "바닥",
	"저점", "매집", "슈팅", "떡상",
}

var bearishKeywords = []string{
	"급락", "하한가", "폭락", "손절", "하락", "매도", "경고", "목표가 하향",
	"악재", "이탈", "신저가", "우려", "나빠", "부정", "내릴", "하향",
	"도망", "탈출", "물렸", "패닉", "투매", "고점", "떡락", "개미털기",
}

var rumorIndicators = []string{
	"카더라", "루머", "소문", "찌라시", "~일듯", "~할듯", "아마도",
	"추정", "예상", "들었는데", "한다더라", "~인듯", "~같음",
	"누가 그러는데", "확인 안됨", "비공식", "썰", "뇌피셜",
}

var factIndicators = []string{
	"공시", "IR", "발표", "확정", "공식", "보도", "기사", "뉴스",
	"실적", "결산", "분기", "사업보고서", "증권신고서", "확인됨",
	"금감원", "거래소", "공정위",
}

var spamPatterns = []string{
	// loans
	"대출", "대부", "캐피탈", "신용대출", "담보대출", "전세자금",
	"주택담보", "무직자대출", "급전", "일수", "사채",
	// gambling / adult
	"카지노", "바카라", "슬롯", "토토", "배팅", "도박",
	"성인", "19금", "출장", "마사지",
	// promotion
	"텔레그램 문의", "카톡 문의", "상담문의", "무료상담",
	"클릭", "가입하면", "이벤트 참여",
	// ad link shorteners
	"fine-", "click-", "bit.ly", "tinyurl",
}

func BullishKeywords() []string { return slices.Clone(bullishKeywords) }
func BearishKeywords() []string { return slices.Clone(bearishKeywords) }
func RumorIndicators() []string { return slices.Clone(rumorIndicators) }
func FactIndicators() []string  { return slices.Clone(factIndicators) }
func SpamPatterns() []string    { return slices.Clone(spamPatterns) }

// ValidateKeywordTables reports keywords listed as both bullish and bearish.
func ValidateKeywordTables() error {
	bearish := make(map[string]struct{}, len(bearishKeywords))
	for _, kw := range bearishKeywords {
		bearish[kw] = struct{}{}
	}

	var overlap []string
	for _, kw := range bullishKeywords {
		if _, ok := bearish[kw]; ok {
			overlap = append(overlap, kw)
		}
	}
	if len(overlap) > 0 {
		return fmt.Errorf("keywords listed as both bullish and bearish: %s", strings.Join(overlap, ", "))
	}
	return nil
}

// matchedKeywords returns every keyword contained in text, in table order.
func matchedKeywords(text string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}
