package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// PromptForTicker asks for a six-digit KRX code
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the KRX ticker (e.g., 005930, 102370):",
		Help:    "Six digits, as listed on KOSPI or KOSDAQ",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		if strings.TrimSpace(str) == "" {
			return fmt.Errorf("ticker cannot be empty")
		}
		return validateTicker(str)
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(ticker), nil
}

// PromptForName asks for the stock name, defaulting to the looked-up one
func PromptForName(suggested string) (string, error) {
	var name string
	prompt := &survey.Input{
		Message: "Stock name:",
		Default: suggested,
	}
	if err := survey.AskOne(prompt, &name); err != nil {
		return "", err
	}
	return strings.TrimSpace(name), nil
}

// PromptForList asks for a comma separated list
func PromptForList(message, help string, defaults []string) ([]string, error) {
	var raw string
	prompt := &survey.Input{
		Message: message,
		Help:    help,
		Default: strings.Join(defaults, ", "),
	}
	if err := survey.AskOne(prompt, &raw); err != nil {
		return nil, err
	}
	return parseList(raw), nil
}

// sourceOptions are the toggles PromptForSources offers
var sourceOptions = []string{"Telegram", "Reddit", "Naver"}

// PromptForSources asks which sources to query
func PromptForSources() (map[string]bool, error) {
	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Select sources:",
		Options: sourceOptions,
		Default: sourceOptions,
		Help:    "Telegram only runs when channels are configured.",
	}

	err := survey.AskOne(prompt, &selected, survey.WithValidator(func(val interface{}) error {
		answers, ok := val.([]survey.OptionAnswer)
		if !ok {
			return fmt.Errorf("invalid selection type")
		}
		if len(answers) == 0 {
			return fmt.Errorf("select at least one source")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	enabled := make(map[string]bool, len(selected))
	for _, s := range selected {
		enabled[s] = true
	}
	return enabled, nil
}

// PromptForReportFormat chooses between the full and the unified report
func PromptForReportFormat() (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: "Report format:",
		Options: []string{"full", "unified"},
		Default: "full",
		Description: func(value string, index int) string {
			if value == "full" {
				return "nine sections with rumor checklist and samples"
			}
			return "compact per-source summary"
		},
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}
	return choice, nil
}

// ConfirmAction asks a yes/no question
func ConfirmAction(message string, def bool) (bool, error) {
	confirmed := def
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	err := survey.AskOne(prompt, &confirmed)
	return confirmed, err
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
