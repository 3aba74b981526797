package cli

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dyike/CortexSI/internal/report"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/utils"
)

const resultFileName = "si_plus_result.json"

// ResultsManager saves runs under the results directory and lists them back.
type ResultsManager struct {
	resultsDir string
}

// ResultSummary is one saved run as listed by the history command.
type ResultSummary struct {
	Ticker      string    `json:"ticker"`
	Label       string    `json:"label"`
	Score       float64   `json:"score"`
	Messages    int       `json:"messages"`
	RumorRatio  float64   `json:"rumor_ratio"`
	CollectedAt time.Time `json:"collected_at"`
	Dir         string    `json:"dir"`
}

func NewResultsManager(resultsDir string) *ResultsManager {
	return &ResultsManager{resultsDir: resultsDir}
}

// RunDir is the directory a run for ticker is saved in: <name>_<ticker>, or
// the ticker alone when the name is unknown.
func (rm *ResultsManager) RunDir(ticker, stockName string) string {
	dirName := ticker
	if name := strings.TrimSpace(stockName); name != "" && name != ticker {
		dirName = sanitizeDirName(name) + "_" + ticker
	}
	return filepath.Join(rm.resultsDir, dirName)
}

// SavedRun lists the files written for one run.
type SavedRun struct {
	Markdown string
	HTML     string
	JSON     string
}

// Save writes the Markdown report and the raw result as JSON into dir. The
// HTML rendition is only written when withHTML is set.
func (rm *ResultsManager) Save(dir, title, markdown string, result *models.UnifiedCollectionResult, withHTML bool) (SavedRun, error) {
	var saved SavedRun
	var err error
	if saved.Markdown, err = utils.WriteMarkdown(dir, report.FileName, markdown); err != nil {
		return saved, err
	}
	if withHTML {
		if saved.HTML, err = utils.WriteHTML(dir, report.FileName, title, markdown); err != nil {
			return saved, err
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return saved, fmt.Errorf("encode result: %w", err)
	}
	saved.JSON = filepath.Join(dir, resultFileName)
	if err := os.WriteFile(saved.JSON, data, 0o644); err != nil {
		return saved, fmt.Errorf("failed to write file %s: %w", saved.JSON, err)
	}
	return saved, nil
}

// ListResults reads every saved result, newest first.
func (rm *ResultsManager) ListResults() ([]ResultSummary, error) {
	var results []ResultSummary
	if _, err := os.Stat(rm.resultsDir); os.IsNotExist(err) {
		return results, nil
	}

	err := filepath.WalkDir(rm.resultsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != resultFileName {
			return nil
		}
		summary, err := readSummary(path)
		if err != nil {
			// unreadable files are skipped, not fatal
			return nil
		}
		results = append(results, summary)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk results directory: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CollectedAt.After(results[j].CollectedAt)
	})
	return results, nil
}

func readSummary(path string) (ResultSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultSummary{}, err
	}
	var result models.UnifiedCollectionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ResultSummary{}, err
	}
	return ResultSummary{
		Ticker:      result.Ticker,
		Label:       result.Combined.SentimentLabel,
		Score:       result.Combined.Sentiment.Score,
		Messages:    result.Stats.TotalMessages,
		RumorRatio:  result.Stats.RumorRatio,
		CollectedAt: result.CollectedAt,
		Dir:         filepath.Dir(path),
	}, nil
}

func sanitizeDirName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
