package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/prompts"
)

var (
	breakdownProject string
	breakdownDetails string
	breakdownMin     int
	breakdownMax     int
	breakdownRaw     bool
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown <task title>",
	Short: "Break a task into validated subtasks",
	Long: `Run the task breakdown prompt and validate the reply against the subtask schema.
A reply that fails validation is sent back to the model once for correction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBreakdown,
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the bundled prompt templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := prompts.Default()
		if err != nil {
			return err
		}

		bold := color.New(color.Bold)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, bold.Sprint("ID")+"\t"+bold.Sprint("VERSION")+"\t"+bold.Sprint("VARIABLES"))

		for _, id := range catalog.IDs() {
			prompt, err := catalog.Get(id)
			if err != nil {
				return err
			}
			vars := append(prompt.System.Placeholders(), prompt.User.Placeholders()...)
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", id, prompt.Version(), strings.Join(vars, ", "))
		}

		return tw.Flush()
	},
}

func init() {
	breakdownCmd.Flags().StringVarP(&breakdownProject, "project", "p", "Untitled project", "project name")
	breakdownCmd.Flags().StringVarP(&breakdownDetails, "details", "d", "", "task description")
	breakdownCmd.Flags().IntVar(&breakdownMin, "min", 3, "minimum number of subtasks")
	breakdownCmd.Flags().IntVar(&breakdownMax, "max", 8, "maximum number of subtasks")
	breakdownCmd.Flags().BoolVar(&breakdownRaw, "raw", false, "print the validated JSON instead of a table")
}

func runBreakdown(cmd *cobra.Command, args []string) error {
	if breakdownMin < 1 || breakdownMax < breakdownMin {
		return fmt.Errorf("invalid subtask range %d..%d", breakdownMin, breakdownMax)
	}

	catalog, err := prompts.Default()
	if err != nil {
		return err
	}
	prompt, err := catalog.Get(prompts.TaskBreakdown)
	if err != nil {
		return err
	}

	details := breakdownDetails
	if details == "" {
		details = "(no further details)"
	}

	req, err := prompt.Request(map[string]string{
		"project_name":     breakdownProject,
		"task_title":       strings.Join(args, " "),
		"task_description": details,
		"min_subtasks":     strconv.Itoa(breakdownMin),
		"max_subtasks":     strconv.Itoa(breakdownMax),
	})
	if err != nil {
		return err
	}

	container, err := buildContainer(globalOverrides(true))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w := cmd.OutOrStdout()

	return container.Invoke(func(engine *domain.CompletionEngine, ledger *domain.UsageLedger) error {
		completion := domain.NewSchemaCompletion[prompts.Breakdown](
			engine, domain.NewStructSchema[prompts.Breakdown]())

		result, err := completion.Complete(ctx, req)
		if err != nil {
			return err
		}

		if breakdownRaw {
			encoded, err := json.MarshalIndent(result.Data, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode breakdown: %w", err)
			}
			_, _ = fmt.Fprintln(w, string(encoded))
		} else if err := printBreakdown(w, result.Data); err != nil {
			return err
		}

		if result.Attempts > 1 {
			_, _ = color.New(color.FgYellow).Fprintf(w, "\nrecovered after %d attempts\n", result.Attempts)
		}
		printUsageFooter(w, result.Model, result.Usage, result.Latency, ledger.Snapshot())
		return nil
	})
}

func printBreakdown(w io.Writer, breakdown prompts.Breakdown) error {
	bold := color.New(color.Bold)
	priority := map[string]*color.Color{
		"high":   color.New(color.FgRed),
		"medium": color.New(color.FgYellow),
		"low":    color.New(color.FgGreen),
	}

	_, _ = fmt.Fprintf(w, "%s %s\n\n", bold.Sprint("Summary:"), breakdown.Summary)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, bold.Sprint("#")+"\t"+bold.Sprint("SUBTASK")+"\t"+
		bold.Sprint("PRIORITY")+"\t"+bold.Sprint("HOURS"))

	for i, subtask := range breakdown.Subtasks {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\n",
			i+1, subtask.Title, priority[subtask.Priority].Sprint(subtask.Priority), subtask.EstimateHours)
	}
	_, _ = fmt.Fprintf(tw, "\t%s\t\t%.1f\n", bold.Sprint("total"), breakdown.TotalHours())

	return tw.Flush()
}
