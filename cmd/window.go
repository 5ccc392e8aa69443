package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dayplan/core/cell"
	"github.com/kilianp07/dayplan/core/plan"
	"github.com/kilianp07/dayplan/core/scheduler"
)

var (
	windowAt       string
	windowTimezone string
)

var windowCmd = &cobra.Command{
	Use:   "window <plan-file>",
	Short: "Print the anchors of a plan and the activity in progress",
	Args:  cobra.ExactArgs(1),
	RunE:  window,
}

func init() {
	windowCmd.Flags().StringVar(&windowAt, "at", "", "reference time in RFC3339 (default now)")
	windowCmd.Flags().StringVar(&windowTimezone, "tz", "Local", "IANA timezone of the plan")
	rootCmd.AddCommand(windowCmd)
}

func window(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(windowTimezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	now := time.Now().In(loc)
	if windowAt != "" {
		if now, err = time.ParseInLocation(time.RFC3339, windowAt, loc); err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		now = now.In(loc)
	}

	p, err := plan.LoadPlan(args[0])
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	s := scheduler.New(p.Activities)
	start, end := s.Window(now)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "first anchor: %s\n", cell.FormatMinuteToTime(s.FirstAnchorMinute()))
	fmt.Fprintf(out, "last anchor:  %s\n", cell.FormatMinuteToTime(s.LastAnchorMinute()))
	fmt.Fprintf(out, "window:       %s to %s (%s)\n", start.Format(time.RFC3339), end.Format(time.RFC3339), end.Sub(start))
	if a, left, ok := s.Current(now); ok {
		fmt.Fprintf(out, "current:      %s (%s left)\n", a.Name, left.Round(time.Second))
	} else {
		fmt.Fprintln(out, "current:      none")
	}
	return nil
}
