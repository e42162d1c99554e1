package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/store"
	"github.com/ibeckermayer/apply4me/internal/types"
)

var (
	historyLimit int
	historyRun   int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sessions, or the applications of one session with --run.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.New(cfg.StorePath())
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer st.Close()

		if historyRun != 0 {
			attempts, err := st.RunAttempts(historyRun)
			if err != nil {
				return err
			}
			renderAttempts(cmd.OutOrStdout(), attempts)
			return nil
		}

		runs, err := st.RecentRuns(historyLimit)
		if err != nil {
			return err
		}
		today, err := st.SubmittedSince(startOfDay(time.Now()))
		if err != nil {
			return err
		}
		renderRuns(cmd.OutOrStdout(), runs)
		fmt.Fprintf(cmd.OutOrStdout(), "Submitted today: %d\n", today)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of sessions to list")
	historyCmd.Flags().Int64Var(&historyRun, "run", 0, "show the applications of this session")
	rootCmd.AddCommand(historyCmd)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func renderRuns(w io.Writer, runs []store.Run) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Started", "Finished", "Submitted", "Failed", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Submitted, r.Failed, r.Error})
	}
	if len(runs) == 0 {
		t.AppendFooter(table.Row{"", "No sessions recorded yet"})
	}
	t.Render()
}

func renderAttempts(w io.Writer, attempts []types.Attempt) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Listing", "Status", "Answered", "Skipped", "Error"})
	for i, a := range attempts {
		t.AppendRow(table.Row{
			i + 1,
			a.Listing,
			a.Status,
			strings.Join(a.Answered, "\n"),
			strings.Join(a.Skipped, "\n"),
			a.Error,
		})
	}
	t.Render()
}
