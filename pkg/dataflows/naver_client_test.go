package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexSI/consts"
)

const boardFixture = `<html><body>
<table class="type2">
<tbody>
<tr><th>날짜</th><th>제목</th><th>글쓴이</th><th>조회</th><th>공감</th><th>비공감</th></tr>
<tr>
  <td><span class="tah p10 gray03">2024.01.15 12:30</span></td>
  <td class="title"><a href="/item/board_read.naver?code=005930&nid=283001&st=&sw=&page=1" title="삼성전자 급등 가즈아">삼성전자 급등 가즈아</a></td>
  <td class="p11">kim****</td>
  <td><span class="tah p10 gray03">1,234</span></td>
  <td><strong class="tah p10 red01">15</strong></td>
  <td><strong class="tah p10 blue01">2</strong></td>
</tr>
<tr><td colspan="6"><img src="blank.gif"></td></tr>
<tr>
  <td>01.14 09:05</td>
  <td class="title"></td>
  <td>lee</td><td>3</td><td>0</td><td>0</td>
</tr>
<tr>
  <td>01.14 09:01</td>
  <td class="title"><a href="/item/board_read.naver?code=005930&nid=283000">반도체 업황 우려</a></td>
  <td>park</td><td>n/a</td><td>0</td><td>1</td>
</tr>
</tbody>
</table>
</body></html>`

func TestParseBoardPage(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, consts.KST)
	posts, err := ParseBoardPage(strings.NewReader(boardFixture), "https://finance.naver.com", now)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "283001", first.ID)
	assert.Equal(t, "삼성전자 급등 가즈아", first.Title)
	assert.Equal(t, "kim****", first.Author)
	assert.Equal(t, "2024-01-15 12:30:00", first.Date)
	assert.Equal(t, 1234, first.Views)
	assert.Equal(t, 15, first.Likes)
	assert.True(t, strings.HasPrefix(first.URL, "https://finance.naver.com/item/board_read.naver"))

	second := posts[1]
	assert.Equal(t, "283000", second.ID)
	assert.Equal(t, "2025-01-14 09:01:00", second.Date)
	assert.Equal(t, 0, second.Views)
}

func TestParseBoardPageWithoutTable(t *testing.T) {
	posts, err := ParseBoardPage(strings.NewReader("<html><body><p>점검중</p></body></html>"), "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestNormalizeBoardDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, consts.KST)

	date, ts := NormalizeBoardDate("2023.12.31 23:59", now)
	assert.Equal(t, "2023-12-31 23:59:00", date)
	assert.Equal(t, 2023, ts.Year())

	date, _ = NormalizeBoardDate("02.29  08:00", now)
	assert.Equal(t, "2024-02-29 08:00:00", date)

	date, ts = NormalizeBoardDate("어제", now)
	assert.Equal(t, "어제", date)
	assert.True(t, ts.IsZero())
}

func TestExtractBoardPostID(t *testing.T) {
	assert.Equal(t, "123", ExtractBoardPostID("/item/board_read.naver?code=005930&nid=123&page=1"))
	assert.Equal(t, "/other", ExtractBoardPostID("/other"))
}

func TestParseNumbers(t *testing.T) {
	assert.Equal(t, 1234567, ParseNumber(" 1,234,567 "))
	assert.Equal(t, 0, ParseNumber("-"))
	assert.Equal(t, 950, ParseCompactNumber("950"))
	assert.Equal(t, 1200, ParseCompactNumber("1.2K"))
	assert.Equal(t, 3000000, ParseCompactNumber("3M"))
	assert.Equal(t, 0, ParseCompactNumber(""))
}

func TestFetchBoardPage(t *testing.T) {
	var gotCode, gotPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCode = r.URL.Query().Get("code")
		gotPage = r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(boardFixture))
	}))
	defer srv.Close()

	client := NewNaverBoardClient(testConfig(srv.URL))
	posts, err := client.FetchBoardPage(context.Background(), "005930", 2)
	require.NoError(t, err)

	assert.Equal(t, "005930", gotCode)
	assert.Equal(t, "2", gotPage)
	require.Len(t, posts, 2)
	assert.Equal(t, srv.URL+"/item/board_read.naver?code=005930&nid=283001&st=&sw=&page=1", posts[0].URL)
}
