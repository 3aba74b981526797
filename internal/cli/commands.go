package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyike/CortexSI/config"
	"github.com/dyike/CortexSI/internal/report"
	"github.com/dyike/CortexSI/internal/sentiment"
	"github.com/dyike/CortexSI/internal/stockctx"
	"github.com/dyike/CortexSI/internal/unified"
	"github.com/dyike/CortexSI/models"
	"github.com/dyike/CortexSI/pkg/logger"
)

const version = "v0.3.0"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	// Initialize configuration early
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "cortexsi",
		Short: "CortexSI - community sentiment for Korean equities",
		Long: `CortexSI collects retail-investor chatter about a KRX stock from Telegram,
Reddit and the Naver discussion board, removes spam, scores bullish versus
bearish sentiment, flags rumors and writes a Markdown report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path := configFilePath(cmd); path != "" {
				mgr, err := config.NewManager(config.WithConfigPath(path))
				if err != nil {
					return fmt.Errorf("load config %s: %w", path, err)
				}
				config.SetDefaultManager(mgr)
				*cfg = mgr.Get()
			}
			level := cfg.LogLevel
			if debug, _ := cmd.Flags().GetBool("debug"); debug || cfg.Debug {
				level = "debug"
			}
			if err := logger.Init(level, cfg.LogEnv); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start interactive mode
			return runInteractiveMode(cmd.Context(), cfg)
		},
	}

	rootCmd.AddCommand(newCollectCmd(cfg))
	rootCmd.AddCommand(newContextCmd(cfg))
	rootCmd.AddCommand(newWatchCmd(cfg))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "interactive",
		Short: "Prompt for a ticker and sources, then collect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(cmd.Context(), cfg)
		},
	})
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(cfg))

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Configuration file path (JSON)")

	return rootCmd
}

// configFilePath is --config, or the user config file when one exists.
func configFilePath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// signalContext cancels on SIGINT / SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

type collectFlags struct {
	name       string
	aliases    []string
	themes     []string
	channels   []string
	limit      int
	noTelegram bool
	noReddit   bool
	noNaver    bool
	html       bool
	format     string
	output     string
	jsonOut    bool
}

func (f *collectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Stock name (looked up on Yahoo Finance when empty)")
	cmd.Flags().StringSliceVar(&f.aliases, "aliases", nil, "Extra names searched as direct matches")
	cmd.Flags().StringSliceVar(&f.themes, "themes", nil, "Theme keywords searched as indirect matches")
	cmd.Flags().StringSliceVar(&f.channels, "channels", nil, "Additional Telegram channels")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Messages per source (config default when 0)")
	cmd.Flags().BoolVar(&f.noTelegram, "no-telegram", false, "Skip Telegram")
	cmd.Flags().BoolVar(&f.noReddit, "no-reddit", false, "Skip Reddit")
	cmd.Flags().BoolVar(&f.noNaver, "no-naver", false, "Skip the Naver board")
	cmd.Flags().BoolVar(&f.html, "html", false, "Also write an HTML rendition of the report")
	cmd.Flags().StringVar(&f.format, "format", "full", "Report format: full or unified")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory (results dir when empty)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the raw result as JSON instead of the summary")
}

// newCollectCmd creates the collect command
func newCollectCmd(cfg *config.Config) *cobra.Command {
	var flags collectFlags
	cmd := &cobra.Command{
		Use:   "collect TICKER",
		Short: "Collect and score sentiment for one stock",
		Long: `Collect messages about a KRX stock from every enabled source and write
the SI+ report.
Example: cortexsi collect 005930 --themes 반도체,HBM`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runCollect(ctx, cmd, newRunner(cfg), cfg, args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runCollect(ctx context.Context, cmd *cobra.Command, r *runner, cfg *config.Config, ticker string, flags collectFlags) error {
	run, err := collectAndSave(ctx, r, cfg, ticker, flags)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run.result)
	}
	fmt.Fprintln(out, renderSummary(run.stockName, run.result))
	fmt.Fprintf(out, "report: %s\n", run.saved.Markdown)
	if run.saved.HTML != "" {
		fmt.Fprintf(out, "html:   %s\n", run.saved.HTML)
	}
	return nil
}

type finishedRun struct {
	stockName string
	result    *models.UnifiedCollectionResult
	saved     SavedRun
}

// collectAndSave runs one collection and writes its report and raw result.
func collectAndSave(ctx context.Context, r *runner, cfg *config.Config, ticker string, flags collectFlags) (finishedRun, error) {
	if flags.format == "" {
		flags.format = "full"
	}
	if flags.format != "full" && flags.format != "unified" {
		return finishedRun{}, fmt.Errorf("unknown report format %q", flags.format)
	}
	if err := validateTicker(ticker); err != nil {
		return finishedRun{}, err
	}
	in := runInput{
		Ticker:     ticker,
		Aliases:    flags.aliases,
		Themes:     flags.themes,
		Channels:   flags.channels,
		Limit:      flags.limit,
		NoTelegram: flags.noTelegram,
		NoReddit:   flags.noReddit,
		NoNaver:    flags.noNaver,
	}
	in.StockName = r.resolveName(ticker, flags.name)

	result, err := r.collect(ctx, in)
	if err != nil {
		return finishedRun{}, err
	}

	var markdown string
	if flags.format == "unified" {
		markdown = unified.GenerateReport(result)
	} else {
		markdown = report.Full(in.StockName, result, r.now())
	}

	rm := NewResultsManager(cfg.ResultsDir)
	dir := flags.output
	if dir == "" {
		dir = rm.RunDir(ticker, in.StockName)
	}
	saved, err := rm.Save(dir, fmt.Sprintf("%s (%s) SI+", in.StockName, ticker), markdown, result, flags.html)
	if err != nil {
		return finishedRun{}, err
	}
	return finishedRun{stockName: in.StockName, result: result, saved: saved}, nil
}

// newContextCmd creates the context command
func newContextCmd(cfg *config.Config) *cobra.Command {
	var (
		output string
		html   bool
	)
	cmd := &cobra.Command{
		Use:   "context ANALYSIS_FILE",
		Short: "Collect sentiment steered by a prior stock analysis",
		Long: `Read a stock analysis Markdown file, derive ticker, aliases and theme
keywords from it and write a context-aware SI+ report next to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			sc, err := stockctx.ExtractFromFile(args[0])
			if err != nil {
				return err
			}
			search := stockctx.ToSearchConfig(sc)

			r := newRunner(cfg)
			result, err := r.collect(ctx, runInput{
				Ticker:    search.Ticker,
				StockName: search.StockName,
				Aliases:   search.Aliases,
				Themes:    search.ThemeKeywords,
			})
			if err != nil {
				return err
			}

			dir := output
			if dir == "" {
				dir = filepath.Dir(args[0])
			}
			markdown := report.ContextAware(sc, result, r.now())
			saved, err := NewResultsManager(cfg.ResultsDir).Save(dir, sc.StockName+" SI+", markdown, result, html)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(sc.StockName, result))
			fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", saved.Markdown)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (next to the analysis file when empty)")
	cmd.Flags().BoolVar(&html, "html", false, "Also write an HTML rendition of the report")
	return cmd
}

// newHistoryCmd lists saved runs
func newHistoryCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List saved SI+ results",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := NewResultsManager(cfg.ResultsDir).ListResults()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(results))
			return nil
		},
	}
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CortexSI %s\n", version)
			fmt.Fprintln(cmd.OutOrStdout(), "SI+ (Sentiment Intelligence Plus) for Korean equities")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set one configuration value by its JSON key",
		Long: `Set one value in the config file (--config, or the user config file) and
validate the result, including the Telegram channel catalog it points at.
List keys take comma-separated values.
Example: cortexsi config set telegram_channels siglab,FastStockNews`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.DefaultManager()
			if err != nil {
				return err
			}
			if err := mgr.Set(args[0], args[1]); err != nil {
				return err
			}
			*cfg = mgr.Get()
			snap := mgr.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s (%d Telegram channels)\n", args[0], mgr.Path(), len(snap.Channels))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration, keyword tables and the channel catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd, cfg)
		},
	})

	return configCmd
}

// validateConfig checks config values, keyword tables and the channel catalog
func validateConfig(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(out, "FAIL")
		return err
	}
	fmt.Fprintln(out, "ok")

	fmt.Fprint(out, "Checking keyword tables... ")
	if err := sentiment.ValidateKeywordTables(); err != nil {
		fmt.Fprintln(out, "FAIL")
		return err
	}
	fmt.Fprintln(out, "ok")

	fmt.Fprint(out, "Checking Telegram channels... ")
	channels, catalog, err := cfg.ResolveTelegramChannels()
	if err != nil {
		fmt.Fprintln(out, "FAIL")
		return err
	}
	if catalog == nil {
		fmt.Fprintf(out, "ok (%d configured, no catalog file)\n", len(channels))
	} else {
		fmt.Fprintf(out, "ok (%d channels in %d categories)\n", len(channels), len(catalog.Categories()))
	}
	if len(channels) == 0 {
		fmt.Fprintln(out, "  warning: no Telegram channels, the Telegram source stays disabled")
	}
	return nil
}
