package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"weekplanner/internal/dates"
	"weekplanner/internal/views"
)

var (
	weekAnchor string
	weekOffset int
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print the week board",
	RunE:  runWeek,
}

func init() {
	weekCmd.Flags().StringVar(&weekAnchor, "anchor", "", "First day of the window as YYYY-MM-DD; defaults to today")
	weekCmd.Flags().IntVar(&weekOffset, "offset", 0, "Shift the window by this many weeks")
}

func runWeek(cmd *cobra.Command, args []string) error {
	planner, closeStore, _, err := openPlanner()
	if err != nil {
		return err
	}
	defer closeStore()

	now := time.Now()
	anchor := now
	if weekAnchor != "" {
		key, err := dates.ParseKey(weekAnchor)
		if err != nil {
			return err
		}
		anchor = key.Time(time.Local)
	}
	anchor = dates.AddDays(anchor, weekOffset*dates.WindowSize)

	view, err := planner.Week(cmd.Context(), anchor)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), views.RenderWeek(view, string(dates.Key(now))))
	return nil
}
