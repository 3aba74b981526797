package stockctx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/errors"
)

const analysis = `# 케이옥션 (102370) Analysis

## 1. 기업 분석

### 기업 개요
**사업 내용**: 미술품 경매 중개 서비스
- 온라인 경매 (주력)
- 미술품 담보대출

### 산업 동향
1. 미술품 시장 성장 (연 10%)
2. 조각투자 제도화

### 최신 뉴스
- 전략적 의미: 토큰증권 사업 진출 기반 마련

## 2. 리스크
**경기 민감도**: 불황기 거래 감소
**유동성**: 거래량 부족

**Bearish**:
- 영업적자 지속 우려
- 경매 낙찰률 하락 추세

### 최종 요약
적자 지속 중이나 STO 테마 기대감 존재
**투자의견**: 중립

*Tags: #케이옥션 #STO #미술품*
`

func TestExtract(t *testing.T) {
	sc := Extract(analysis)

	assert.Equal(t, "102370", sc.Ticker)
	assert.Equal(t, "케이옥션", sc.StockName)
	assert.Equal(t, []string{"케이옥션", "케션", "K옥션", "K-옥션"}, sc.Aliases)
	assert.Equal(t, []string{"미술품", "경매", "중개", "서비스", "온라인", "담보대출", "시장", "성장", "조각투자", "제도화"}, sc.BusinessKeywords)
	assert.Equal(t, []string{"토큰증권", "사업", "진출", "마련", "케이옥션", "STO", "미술품", "조각투자"}, sc.ThemeKeywords)
	assert.Equal(t, []string{"경기 민감도", "유동성", "Bearish", "영업적자", "지속", "경매", "낙찰률"}, sc.RiskKeywords)
	assert.Equal(t, "적자 지속 중이나 STO 테마 기대감 존재", sc.Summary)
}

func TestExtractEmptyDocument(t *testing.T) {
	sc := Extract("no headings here")

	assert.Empty(t, sc.Ticker)
	assert.Empty(t, sc.StockName)
	assert.NotNil(t, sc.Aliases)
	assert.Empty(t, sc.Aliases)
	assert.Empty(t, sc.BusinessKeywords)
	assert.Empty(t, sc.Summary)
}

func TestSummaryFallsBackToConclusion(t *testing.T) {
	doc := "# 테스트 (000001)\n\n## 5. 결론\n성장 지속 전망\n\n## 6. 부록\n"
	assert.Equal(t, "## 5. 결론\n성장 지속 전망\n\n", Extract(doc).Summary)
}

func TestKeywordCaps(t *testing.T) {
	doc := "### 기업 개요\n**사업 내용**: 가가 나나 다다 라라 마마 바바 사사 아아 자자 차차 카카 타타 파파 하하 가나 다라 마바\n"
	assert.Len(t, Extract(doc).BusinessKeywords, maxBusinessKeywords)
}

func TestAliases(t *testing.T) {
	assert.Equal(t, []string{"삼성전자", "삼자"}, Aliases("삼성전자"))
	assert.Equal(t, []string{"LG"}, Aliases("LG"))
	assert.Equal(t, []string{"케이티", "케티", "K티", "K-티"}, Aliases("케이티"))
	assert.Empty(t, Aliases(""))
}

func TestToSearchConfig(t *testing.T) {
	cfg := ToSearchConfig(models.StockContext{
		Ticker:           "102370",
		StockName:        "케이옥션",
		Aliases:          []string{"케이옥션"},
		BusinessKeywords: []string{"미술품", "경매"},
		ThemeKeywords:    []string{"STO", "미술품"},
	})

	assert.Equal(t, "102370", cfg.Ticker)
	assert.Equal(t, []string{"케이옥션"}, cfg.Aliases)
	assert.Equal(t, []string{"미술품", "경매", "STO"}, cfg.ThemeKeywords)
}

func TestExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock_analyzer_summary.md")
	require.NoError(t, os.WriteFile(path, []byte(analysis), 0o644))

	sc, err := ExtractFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "102370", sc.Ticker)

	_, err = ExtractFromFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
