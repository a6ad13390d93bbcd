package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/davidbz/ember/internal/config"
)

// Global flag values.
var (
	verbose   bool
	noColor   bool
	modelFlag string
)

// rootCmd is the base command for ember.
var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "LLM completion client for AI-assisted project management",
	Long: `Ember turns versioned prompt templates into validated, typed LLM results.
It serves blocking and streaming completions over HTTP, runs one-shot
completions from the terminal and keeps token and cost accounting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model to use (overrides LLM_MODEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(breakdownCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(versionCmd)
}

// globalOverrides applies the persistent flags. Terminal commands default to quieter logs.
func globalOverrides(quiet bool) overrideFunc {
	return func(cfg *config.Config) {
		if modelFlag != "" {
			cfg.LLM.Model = modelFlag
		}

		switch {
		case verbose:
			cfg.Log.Level = "debug"
		case quiet:
			cfg.Log.Level = "warn"
		}
	}
}
