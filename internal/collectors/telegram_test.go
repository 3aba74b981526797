package collectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/dataflows"
)

func tgPost(id int64, text string, ts time.Time) dataflows.TelegramPost {
	return dataflows.TelegramPost{ID: id, Text: text, Timestamp: ts, Date: ts.Format(consts.DateLayout)}
}

func TestTelegramCollectDedupAndOrder(t *testing.T) {
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, consts.KST)
	searcher := &fakeChannelSearcher{results: map[string][]dataflows.TelegramPost{
		"alpha|005930": {tgPost(1, "005930 급등", base), tgPost(2, "005930 삼성전자 매수", base.Add(2*time.Hour))},
		"alpha|삼성전자": {tgPost(2, "005930 삼성전자 매수", base.Add(2*time.Hour)), tgPost(3, "삼성전자 하락", base.Add(time.Hour))},
		"alpha|반도체": {tgPost(4, "반도체 업황 반등", base.Add(3*time.Hour))},
		"beta|005930": {tgPost(1, "다른 채널의 1번", base.Add(30*time.Minute))},
		"beta|삼성전자": {{ID: 9, Text: "  "}},
	}}

	collector := NewTelegramCollector(searcher, []string{"alpha", " ", "beta"}, quiet()...)
	result, err := collector.Collect(context.Background(), models.CollectRequest{
		Ticker:        "005930",
		Aliases:       []string{"삼성전자"},
		ThemeKeywords: []string{"반도체"},
		Limit:         20,
	})
	require.NoError(t, err)

	assert.Equal(t, consts.SourceTelegram, result.Source)
	assert.Equal(t, []string{"alpha", "beta"}, collector.Channels())
	require.Len(t, result.Messages, 5)

	ids := make([]string, len(result.Messages))
	for i, m := range result.Messages {
		ids[i] = m.ID
		assert.Equal(t, consts.SourceTelegram, m.Source)
		assert.NotEmpty(t, m.Text)
		assert.NotEmpty(t, m.MatchedKeyword)
	}
	assert.Equal(t, []string{"4", "2", "3", "1", "1"}, ids)

	// post 2 was found first by the ticker search
	assert.Equal(t, "005930", result.Messages[1].MatchedKeyword)
	assert.Equal(t, consts.MatchTheme, result.Messages[0].MatchType)
	assert.Equal(t, "beta", result.Messages[3].Channel)
	assert.Equal(t, "alpha", result.Messages[4].Channel)

	assert.Equal(t, 5, result.Stats.TotalMessages)
	assert.Equal(t, 4, result.Stats.DirectCount)
	assert.Equal(t, 1, result.Stats.ThemeCount)
	assert.Equal(t, map[string]int{"alpha": 4, "beta": 1}, result.Stats.Channels)
}

func TestTelegramCollectIsolatesFailedSearch(t *testing.T) {
	now := time.Now()
	searcher := &fakeChannelSearcher{
		results: map[string][]dataflows.TelegramPost{
			"alpha|삼성전자": {tgPost(7, "삼성전자 좋아", now)},
		},
		fail: map[string]bool{"alpha|005930": true},
	}

	collector := NewTelegramCollector(searcher, []string{"alpha"}, quiet()...)
	result, err := collector.Collect(context.Background(), models.CollectRequest{Ticker: "005930", Aliases: []string{"삼성전자"}})
	require.NoError(t, err)

	assert.Len(t, searcher.calls, 2)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "7", result.Messages[0].ID)
}

func TestTelegramCollectRepeatedChannel(t *testing.T) {
	searcher := &fakeChannelSearcher{results: map[string][]dataflows.TelegramPost{
		"alpha|005930": {tgPost(1, "005930 급등", time.Now())},
	}}

	collector := NewTelegramCollector(searcher, []string{"alpha", "@alpha", " alpha "}, quiet()...)
	assert.Equal(t, []string{"alpha"}, collector.Channels())

	result, err := collector.Collect(context.Background(), models.CollectRequest{Ticker: "005930"})
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha|005930"}, searcher.calls)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, 1, result.Stats.TotalMessages)
	assert.Equal(t, map[string]int{"alpha": 1}, result.Stats.Channels)
}

func TestTelegramCollectMaxAge(t *testing.T) {
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, consts.KST)
	searcher := &fakeChannelSearcher{results: map[string][]dataflows.TelegramPost{
		"alpha|005930": {
			tgPost(1, "오래된 글", now.AddDate(0, 0, -10)),
			tgPost(2, "최근 글", now.AddDate(0, 0, -1)),
		},
	}}

	opts := append(quiet(), WithMaxAge(7*24*time.Hour), WithClock(func() time.Time { return now }))
	collector := NewTelegramCollector(searcher, []string{"alpha"}, opts...)
	result, err := collector.Collect(context.Background(), models.CollectRequest{Ticker: "005930"})
	require.NoError(t, err)

	require.Len(t, result.Messages, 1)
	assert.Equal(t, "2", result.Messages[0].ID)
}

func TestTelegramCollectNoChannels(t *testing.T) {
	collector := NewTelegramCollector(&fakeChannelSearcher{}, nil, quiet()...)
	result, err := collector.Collect(context.Background(), models.CollectRequest{Ticker: "005930"})
	require.NoError(t, err)

	assert.NotNil(t, result.Messages)
	assert.Empty(t, result.Messages)
	assert.Zero(t, result.Stats.TotalMessages)
}

func TestFilterByTicker(t *testing.T) {
	messages := []models.Message{
		{Text: "삼성전자 상승 기대"},
		{Text: "오늘 날씨 좋네요"},
		{Text: "005930 매수 추천"},
	}

	filtered := FilterByTicker(messages, "005930", []string{"삼성전자", "삼성"})

	require.Len(t, filtered, 2)
	assert.Equal(t, "삼성전자", filtered[0].MatchedKeyword)
	assert.Equal(t, "005930", filtered[1].MatchedKeyword)
	assert.Equal(t, consts.MatchDirect, filtered[1].MatchType)
	assert.Empty(t, FilterByTicker(nil, "005930", nil))
}

func TestSearchTermsDedup(t *testing.T) {
	terms := searchTerms(models.CollectRequest{
		Ticker:        "005930",
		Aliases:       []string{"삼성전자", "", "005930"},
		ThemeKeywords: []string{"삼성전자", "HBM"},
	})

	require.Len(t, terms, 3)
	assert.Equal(t, searchTerm{"005930", consts.MatchDirect}, terms[0])
	assert.Equal(t, searchTerm{"삼성전자", consts.MatchDirect}, terms[1])
	assert.Equal(t, searchTerm{"HBM", consts.MatchTheme}, terms[2])
}
