package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/apply4me/internal/answers"
	"github.com/ibeckermayer/apply4me/internal/apply"
	"github.com/ibeckermayer/apply4me/internal/artifacts"
	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/config"
	"github.com/ibeckermayer/apply4me/internal/listing"
)

var replayOut string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run the scanner or form filler against a saved HTML page.",
}

var replayListingsCmd = &cobra.Command{
	Use:   "listings <file.html>",
	Short: "Show which listing a saved listings page would open.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return replayListings(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var replayFormCmd = &cobra.Command{
	Use:   "form <file.html>",
	Short: "Show how a saved application form would be answered.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return replayForm(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], replayOut)
	},
}

func init() {
	replayFormCmd.Flags().StringVarP(&replayOut, "out", "o", "", "write the filled page to this file")
	replayCmd.AddCommand(replayListingsCmd, replayFormCmd)
	rootCmd.AddCommand(replayCmd)
}

func loadSnapshot(path string) (*browser.SnapshotPage, error) {
	html, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return browser.NewSnapshotPage("file://"+filepath.ToSlash(abs), string(html))
}

func replayListings(ctx context.Context, w io.Writer, path string) error {
	page, err := loadSnapshot(path)
	if err != nil {
		return err
	}

	l, err := listing.New(page, 0, component("listing")).First(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Would open listing %d: %s\n", l.Index+1, l.Text)
	return nil
}

func replayForm(ctx context.Context, w io.Writer, c *config.Config, path, out string) error {
	page, err := loadSnapshot(path)
	if err != nil {
		return err
	}
	answerTable, err := answers.FromConfig(c.Answers)
	if err != nil {
		return err
	}

	rec := artifacts.New(c.Debug.ArtifactDir, component("artifacts"))
	driver := apply.New(page, answerTable, rec, apply.Options{Timings: apply.TimingsFromConfig(c)}, component("apply"))
	report, err := driver.FillForm(ctx)
	if err != nil {
		return err
	}

	t := newTable(w)
	t.AppendHeader([]any{"Question", "Answer"})
	for _, q := range report.Answered {
		entry, _ := answerTable.Match(q)
		t.AppendRow([]any{q, entry.Answer})
	}
	for _, q := range report.Skipped {
		t.AppendRow([]any{q, "(skipped)"})
	}
	t.Render()

	if out == "" {
		return nil
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte(html), 0644)
}
