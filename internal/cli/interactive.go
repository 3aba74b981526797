package cli

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/dyike/CortexSI/config"
	"github.com/dyike/CortexSI/pkg/errors"
)

// runInteractiveMode prompts for one stock at a time until the user stops
func runInteractiveMode(ctx context.Context, cfg *config.Config) error {
	fmt.Println(titleStyle.Render("CortexSI - SI+ sentiment for Korean equities"))
	fmt.Println()

	r := newRunner(cfg)
	for {
		err := interactiveRound(ctx, r, cfg)
		if errors.Is(err, terminal.InterruptErr) {
			fmt.Println("bye")
			return nil
		}
		if err != nil {
			fmt.Println(bearishStyle.Render("collection failed: ") + err.Error())
		}

		again, err := ConfirmAction("Analyze another stock?", true)
		if err != nil || !again {
			return nil
		}
		fmt.Println()
	}
}

func interactiveRound(ctx context.Context, r *runner, cfg *config.Config) error {
	ticker, err := PromptForTicker()
	if err != nil {
		return err
	}
	name, err := PromptForName(r.resolveName(ticker, ""))
	if err != nil {
		return err
	}
	aliases, err := PromptForList("Aliases (comma separated):", "Searched as direct matches", nil)
	if err != nil {
		return err
	}
	themes, err := PromptForList("Theme keywords (comma separated):", "Searched as theme matches", nil)
	if err != nil {
		return err
	}
	sources, err := PromptForSources()
	if err != nil {
		return err
	}
	format, err := PromptForReportFormat()
	if err != nil {
		return err
	}

	flags := collectFlags{
		name:       name,
		aliases:    aliases,
		themes:     themes,
		noTelegram: !sources["Telegram"],
		noReddit:   !sources["Reddit"],
		noNaver:    !sources["Naver"],
		format:     format,
	}

	cmd := &cobra.Command{}
	runCtx, cancel := signalContext(ctx)
	defer cancel()
	return runCollect(runCtx, cmd, r, cfg, ticker, flags)
}
