package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexSI/config"
	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/report"
	"github.com/dyike/CortexSI/internal/unified"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/dataflows"
	"github.com/dyike/CortexSI/pkg/errors"
	"github.com/dyike/CortexSI/pkg/logger"
)

type fakeLookup struct {
	name string
	err  error
}

func (f fakeLookup) LookupName(string) (string, error) { return f.name, f.err }

type staticCollector struct {
	requests []models.CollectRequest
}

func (s *staticCollector) SourceName() string { return "static" }

func (s *staticCollector) Collect(_ context.Context, req models.CollectRequest) (*models.CollectorResult, error) {
	s.requests = append(s.requests, req)
	messages := []models.Message{
		{Text: "삼성전자 급등 가즈아", Source: "static", MatchType: consts.MatchDirect, MatchedKeyword: "삼성전자"},
		{Text: "HBM 호재 상승", Source: "static", MatchType: consts.MatchTheme, MatchedKeyword: "HBM"},
	}
	return &models.CollectorResult{
		Source:   "static",
		Ticker:   req.Ticker,
		Messages: messages,
		Stats:    models.CollectorStats{TotalMessages: 2, DirectCount: 1, ThemeCount: 1},
	}, nil
}

type recordingSearcher struct {
	channels []string
}

func (s *recordingSearcher) SearchChannel(_ context.Context, channel, _ string, _ int) ([]dataflows.TelegramPost, error) {
	s.channels = append(s.channels, channel)
	return nil, nil
}

func testRunner(t *testing.T, lookup nameLookup) (*runner, *config.Config, *staticCollector) {
	t.Helper()
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.RedditEnabled = false
	stub := &staticCollector{}
	r := &runner{
		cfg:    cfg,
		log:    logger.Nop(),
		lookup: lookup,
		now:    func() time.Time { return time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC) },
		extra:  []unified.Option{unified.WithNaver(false), unified.WithCollectors(stub)},
	}
	return r, cfg, stub
}

func TestValidateTicker(t *testing.T) {
	assert.NoError(t, validateTicker("005930"))
	assert.NoError(t, validateTicker(" 102370 "))
	for _, bad := range []string{"", "5930", "AAPL", "0059300"} {
		err := validateTicker(bad)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput), bad)
	}
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"반도체", "HBM"}, parseList(" 반도체, ,HBM,"))
	assert.Empty(t, parseList(""))
}

func TestResolveName(t *testing.T) {
	r, _, _ := testRunner(t, fakeLookup{name: "Samsung Electronics"})
	assert.Equal(t, "삼성전자", r.resolveName("005930", " 삼성전자 "))
	assert.Equal(t, "Samsung Electronics", r.resolveName("005930", ""))

	r.lookup = fakeLookup{err: errors.ErrNotFound}
	assert.Equal(t, "005930", r.resolveName("005930", ""))
}

func TestRequestDefaults(t *testing.T) {
	r, cfg, _ := testRunner(t, nil)

	req := r.request(runInput{Ticker: "102370", StockName: "케이옥션"})
	assert.Equal(t, []string{"케이옥션", "케션", "K옥션", "K-옥션"}, req.Aliases)
	assert.Equal(t, cfg.LimitPerSource, req.Limit)

	req = r.request(runInput{Ticker: "102370", StockName: "102370", Limit: 5})
	assert.Empty(t, req.Aliases)
	assert.Equal(t, 5, req.Limit)
}

func TestCollectorRegistration(t *testing.T) {
	r, cfg, _ := testRunner(t, nil)
	cfg.TelegramChannels = []string{"alpha"}
	cfg.RedditEnabled = true

	u, err := r.collector(runInput{Ticker: "005930"})
	require.NoError(t, err)
	assert.Equal(t, []string{consts.SourceTelegram, consts.SourceReddit, "static"}, u.Sources())

	u, err = r.collector(runInput{Ticker: "005930", NoTelegram: true, NoReddit: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"static"}, u.Sources())
}

func TestSnapshotRunnerUsesResolvedChannels(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.TelegramChannels = []string{"from_config"}
	cfg.RedditEnabled = false
	r := newSnapshotRunner(config.Snapshot{Config: *cfg, Channels: []string{"resolved"}})
	r.log = logger.Nop()
	searcher := &recordingSearcher{}
	r.extra = []unified.Option{unified.WithNaver(false), unified.WithTelegramSearcher(searcher)}

	u, err := r.collector(runInput{Ticker: "005930"})
	require.NoError(t, err)
	assert.Equal(t, []string{consts.SourceTelegram}, u.Sources())

	_, err = r.collect(context.Background(), runInput{Ticker: "005930", StockName: "005930"})
	require.NoError(t, err)
	assert.Equal(t, []string{"resolved"}, searcher.channels)
}

func TestCollectAndSave(t *testing.T) {
	r, cfg, stub := testRunner(t, fakeLookup{name: "Samsung Elec"})

	run, err := collectAndSave(context.Background(), r, cfg, "005930", collectFlags{
		themes: []string{"HBM"},
		html:   true,
	})
	require.NoError(t, err)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, []string{"HBM"}, stub.requests[0].ThemeKeywords)
	assert.Equal(t, "Samsung Elec", run.stockName)
	assert.Equal(t, consts.LabelBullish, run.result.Combined.SentimentLabel)

	dir := filepath.Join(cfg.ResultsDir, "Samsung_Elec_005930")
	assert.Equal(t, filepath.Join(dir, report.FileName), run.saved.Markdown)
	assert.FileExists(t, run.saved.HTML)

	md, err := os.ReadFile(run.saved.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Samsung Elec (005930) SI+ 센티먼트 리포트")
	assert.Contains(t, string(md), "> 분석일: 2024-03-05 10:00 KST")

	var saved models.UnifiedCollectionResult
	data, err := os.ReadFile(run.saved.JSON)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "005930", saved.Ticker)
	assert.Equal(t, 2, saved.Stats.TotalMessages)

	history, err := NewResultsManager(cfg.ResultsDir).ListResults()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "005930", history[0].Ticker)
	assert.Equal(t, consts.LabelBullish, history[0].Label)
	assert.Equal(t, dir, history[0].Dir)
}

func TestCollectAndSaveRejectsBadInput(t *testing.T) {
	r, cfg, stub := testRunner(t, nil)

	_, err := collectAndSave(context.Background(), r, cfg, "AAPL", collectFlags{})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = collectAndSave(context.Background(), r, cfg, "005930", collectFlags{format: "pdf"})
	assert.Error(t, err)
	assert.Empty(t, stub.requests)
}

func TestUnifiedFormat(t *testing.T) {
	r, cfg, _ := testRunner(t, nil)
	out := t.TempDir()

	run, err := collectAndSave(context.Background(), r, cfg, "005930", collectFlags{name: "삼성전자", format: "unified", output: out})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, report.FileName), run.saved.Markdown)
	assert.Empty(t, run.saved.HTML)

	md, err := os.ReadFile(run.saved.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# SI+ 통합 센티먼트 리포트: 005930")
}

func TestListResultsNewestFirst(t *testing.T) {
	root := t.TempDir()
	rm := NewResultsManager(root)
	for i, ticker := range []string{"000660", "005930"} {
		result := &models.UnifiedCollectionResult{
			Ticker:      ticker,
			CollectedAt: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
		_, err := rm.Save(rm.RunDir(ticker, ""), ticker, "# r", result, false)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "000660", "notes.json"), []byte("{"), 0o644))

	results, err := rm.ListResults()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "005930", results[0].Ticker)
	assert.Equal(t, "000660", results[1].Ticker)

	empty, err := NewResultsManager(filepath.Join(root, "missing")).ListResults()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunDir(t *testing.T) {
	rm := NewResultsManager("/results")
	assert.Equal(t, filepath.Join("/results", "005930"), rm.RunDir("005930", ""))
	assert.Equal(t, filepath.Join("/results", "005930"), rm.RunDir("005930", "005930"))
	assert.Equal(t, filepath.Join("/results", "SK_hynix_000660"), rm.RunDir("000660", "SK hynix"))
}

func TestRenderSummary(t *testing.T) {
	result := unified.Aggregate(models.CollectRequest{Ticker: "005930"}, nil)
	out := renderSummary("삼성전자", result)

	assert.Contains(t, out, "SI+ 삼성전자 (005930)")
	assert.Contains(t, out, consts.LabelNotAvailable)
	assert.Contains(t, out, "none succeeded")
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"collect", "context", "interactive", "watch", "history", "version", "config"} {
		assert.Contains(t, names, want)
	}

	var buf bytes.Buffer
	versionCmd := newVersionCmd()
	versionCmd.SetOut(&buf)
	require.NoError(t, versionCmd.Execute())
	assert.Contains(t, buf.String(), fmt.Sprintf("CortexSI %s", version))
}

func TestValidateConfigCommand(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cmd := newConfigCmd(cfg)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"validate"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Checking keyword tables... ok")
	assert.Contains(t, buf.String(), "no Telegram channels")
}

func TestConfigSetCommand(t *testing.T) {
	dir := t.TempDir()
	mgr, err := config.NewManager(config.WithConfigDir(dir))
	require.NoError(t, err)
	config.SetDefaultManager(mgr)
	t.Cleanup(func() { config.SetDefaultManager(nil) })

	cfg := mgr.Get()
	cmd := newConfigCmd(&cfg)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"set", "telegram_channels", "siglab,FastStockNews"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "telegram_channels updated in "+mgr.Path())
	assert.Contains(t, buf.String(), "(2 Telegram channels)")
	assert.Equal(t, []string{"siglab", "FastStockNews"}, cfg.TelegramChannels)

	cmd.SetArgs([]string{"set", "limit_per_source", "-1"})
	err = cmd.Execute()
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestSchedulerReloadUsesSnapshot(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.RedditEnabled = false
	cfg.TelegramDelayMs = 0
	cfg.WatchTickers = []string{"005930"}

	w := newScheduler(config.Snapshot{Config: *cfg}, logger.Nop())
	stub := &staticCollector{}
	searcher := &recordingSearcher{}
	var built []config.Snapshot
	w.runner = func(snap config.Snapshot) *runner {
		built = append(built, snap)
		r := newSnapshotRunner(snap)
		r.log = logger.Nop()
		r.lookup = fakeLookup{name: "Watched"}
		r.extra = []unified.Option{
			unified.WithNaver(false),
			unified.WithTelegramSearcher(searcher),
			unified.WithCollectors(stub),
		}
		return r
	}

	next := config.Snapshot{Config: *cfg, Channels: []string{"alpha"}}
	next.Config.WatchTickers = []string{"000660", "035420"}
	w.reload(context.Background(), next)

	invalid := next
	invalid.Config.LimitPerSource = 0
	w.reload(context.Background(), invalid)

	w.runAll(context.Background())

	require.Len(t, built, 1)
	assert.Equal(t, []string{"alpha"}, built[0].Channels)
	require.Len(t, stub.requests, 2)
	assert.Equal(t, "000660", stub.requests[0].Ticker)
	assert.Equal(t, "035420", stub.requests[1].Ticker)
	require.NotEmpty(t, searcher.channels)
	for _, ch := range searcher.channels {
		assert.Equal(t, "alpha", ch)
	}
}
