package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
	"weekplanner/internal/service"
)

var (
	addBucket string
	addDate   string
	addURL    string
	addNotes  string
	addParent string

	toggleDate string
	toggleSub  bool
)

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a task to a day or the bank",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Toggle completion of a task occurrence",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete completion records older than the retention window",
	RunE:  runPrune,
}

func init() {
	addCmd.Flags().StringVar(&addBucket, "bucket", "", "Day bucket (e.g. MONDAY) or TASK_BANK; defaults to today's weekday")
	addCmd.Flags().StringVar(&addDate, "date", "", "Anchor date as YYYY-MM-DD; defaults to today")
	addCmd.Flags().StringVar(&addURL, "url", "", "Link attached to the task")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")
	addCmd.Flags().StringVar(&addParent, "parent", "", "Parent task id, making this a sub-item")

	toggleCmd.Flags().StringVar(&toggleDate, "date", "", "Occurrence date as YYYY-MM-DD; defaults to today")
	toggleCmd.Flags().BoolVar(&toggleSub, "sub", false, "Treat the id as a sub-item")
}

func runAdd(cmd *cobra.Command, args []string) error {
	planner, closeStore, _, err := openPlanner()
	if err != nil {
		return err
	}
	defer closeStore()

	anchor := time.Now()
	if addDate != "" {
		key, err := dates.ParseKey(addDate)
		if err != nil {
			return err
		}
		anchor = key.Time(time.Local)
	}

	bucket := model.DayBucket(anchor.Weekday())
	if addBucket != "" {
		bucket, err = model.ParseBucket(addBucket)
		if err != nil {
			return err
		}
	}

	task, err := planner.CreateTask(cmd.Context(), service.CreateInput{
		Text:     strings.Join(args, " "),
		URL:      addURL,
		Notes:    addNotes,
		Bucket:   bucket,
		Anchor:   anchor,
		ParentID: addParent,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", task.ID, task.Bucket)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	planner, closeStore, _, err := openPlanner()
	if err != nil {
		return err
	}
	defer closeStore()

	day := dates.Key(time.Now())
	if toggleDate != "" {
		day, err = dates.ParseKey(toggleDate)
		if err != nil {
			return err
		}
	}

	ref := model.OccurrenceRef{TaskID: args[0], Day: day}
	if toggleSub {
		err = planner.ToggleSubItem(cmd.Context(), ref)
	} else {
		err = planner.ToggleTask(cmd.Context(), ref)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "toggled %s on %s\n", ref.TaskID, ref.Day)
	return nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	planner, closeStore, cfg, err := openPlanner()
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.RetentionDays <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "retention disabled, nothing to prune")
		return nil
	}

	cutoff := dates.Key(dates.AddDays(time.Now(), -cfg.RetentionDays))
	n, err := planner.Store().PruneCompletions(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d completion records before %s\n", n, cutoff)
	return nil
}
