package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/display"
)

// HistoryCmd lists recorded invocation outcomes.
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent invocation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		database, store, err := rt.openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")
		records, err := store.Recent(ctx, limit)
		if err != nil {
			return err
		}

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(records)
		}

		if len(records) == 0 {
			pterm.Info.Println("No invocations recorded yet")
			return nil
		}

		rows := pterm.TableData{{"When", "Operation", "Outcome", "Source / Failure", "Duration"}}
		for _, rec := range records {
			outcome := "ok"
			detail := rec.Source
			if !rec.OK {
				outcome = "failed"
				detail = rec.FailureKind
			}
			rows = append(rows, []string{
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				rec.Operation,
				outcome,
				detail,
				rec.Duration.String(),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		totals, err := store.Totals(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d total, %d succeeded, %d failed\n", totals.Total, totals.Succeeded, totals.Failed)
		return nil
	},
}

func init() {
	HistoryCmd.Flags().Int("limit", 20, "Maximum number of entries to show")
	HistoryCmd.Flags().BoolP("json", "j", false, "Output history as JSON")
}
