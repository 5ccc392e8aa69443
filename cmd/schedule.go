package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dayplan/core/plan"
	"github.com/kilianp07/dayplan/core/scheduler"
	"github.com/kilianp07/dayplan/pkg/export"
)

var (
	scheduleFormat string
	scheduleWrite  bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <plan-file>",
	Short: "Resolve a plan file once and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  schedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleFormat, "format", "f", "yaml", "output format: yaml, json or csv")
	scheduleCmd.Flags().BoolVarP(&scheduleWrite, "write", "w", false, "write the result back to the plan file")
	rootCmd.AddCommand(scheduleCmd)
}

func schedule(cmd *cobra.Command, args []string) error {
	path := args[0]
	p, err := plan.LoadPlan(path)
	if err != nil {
		return err
	}
	p.EnsureIDs()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	p.Activities = scheduler.Resolve(p.Activities)

	if scheduleWrite {
		return plan.SavePlan(path, p)
	}
	return writePlan(cmd.OutOrStdout(), p, scheduleFormat)
}

func writePlan(w io.Writer, p plan.Plan, format string) error {
	switch format {
	case "csv":
		return export.WriteCSV(w, p.Activities)
	case "json":
		return export.WriteJSON(w, p.Activities)
	case "yaml":
		return plan.EncodePlan(w, p, "yaml")
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
