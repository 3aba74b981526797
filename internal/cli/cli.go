// Package cli provides the cortexsi command-line interface.
package cli

import (
	"os"

	"github.com/dyike/CortexSI/pkg/logger"
)

// Run starts the CLI application
func Run() {
	rootCmd := NewRootCmd()

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
