package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/davidbz/ember/internal/domain"
)

var (
	completeSystem      string
	completeStream      bool
	completeJSON        bool
	completeMaxTokens   int
	completeTemperature float64
)

var completeCmd = &cobra.Command{
	Use:   "complete <message>",
	Short: "Run a one-shot completion",
	Long: `Send a single user message to the configured provider and print the reply.
With --stream the reply is printed as it arrives.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVarP(&completeSystem, "system", "s", "", "system prompt")
	completeCmd.Flags().BoolVar(&completeStream, "stream", false, "stream the reply")
	completeCmd.Flags().BoolVar(&completeJSON, "json", false, "ask for a single JSON value")
	completeCmd.Flags().IntVar(&completeMaxTokens, "max-tokens", 0, "output token cap (default LLM_MAX_TOKENS)")
	completeCmd.Flags().Float64Var(&completeTemperature, "temperature", -1,
		"sampling temperature (default LLM_TEMPERATURE)")
}

func runComplete(cmd *cobra.Command, args []string) error {
	container, err := buildContainer(globalOverrides(true))
	if err != nil {
		return err
	}

	req := &domain.CompletionRequest{
		SystemPrompt: completeSystem,
		UserMessage:  strings.Join(args, " "),
		MaxTokens:    completeMaxTokens,
	}
	if completeJSON {
		req.ResponseFormat = domain.ResponseFormatJSON
	}
	if cmd.Flags().Changed("temperature") {
		req.Temperature = &completeTemperature
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w := cmd.OutOrStdout()

	if completeStream {
		return container.Invoke(func(engine *domain.StreamEngine, ledger *domain.UsageLedger) error {
			return streamCompletion(ctx, w, engine, ledger, req)
		})
	}

	return container.Invoke(func(engine *domain.CompletionEngine, ledger *domain.UsageLedger) error {
		result, err := engine.Complete(ctx, req)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(w, result.Content)
		printUsageFooter(w, result.Model, result.Usage, result.Latency, ledger.Snapshot())
		return nil
	})
}

func streamCompletion(
	ctx context.Context,
	w io.Writer,
	engine *domain.StreamEngine,
	ledger *domain.UsageLedger,
	req *domain.CompletionRequest,
) error {
	start := time.Now()

	events, err := engine.Stream(ctx, req)
	if err != nil {
		return err
	}

	var usage domain.TokenUsage
	for event := range events {
		switch event.Kind {
		case domain.EventTextDelta:
			_, _ = fmt.Fprint(w, event.Delta)
		case domain.EventUsage:
			usage = event.Usage
		case domain.EventError:
			_, _ = fmt.Fprintln(w)
			return event.Err
		case domain.EventDone:
			_, _ = fmt.Fprintln(w)
		}
	}

	if ctx.Err() != nil {
		_, _ = fmt.Fprintln(w)
		return ctx.Err()
	}

	printUsageFooter(w, engine.Model(), usage, time.Since(start), ledger.Snapshot())
	return nil
}

// printUsageFooter prints tokens, latency and estimated spend below a reply.
func printUsageFooter(w io.Writer, model string, usage domain.TokenUsage, latency time.Duration, stats domain.UsageStats) {
	dim := color.New(color.Faint)
	cyan := color.New(color.FgCyan)

	if model == "" {
		model = "default model"
	}

	_, _ = fmt.Fprintf(w, "\n%s %s %s\n",
		cyan.Sprint(model),
		dim.Sprintf("%d in / %d out tokens, %s", usage.InputTokens, usage.OutputTokens, latency.Round(time.Millisecond)),
		dim.Sprintf("(est. $%.6f)", stats.EstimatedCostUSD),
	)
}
