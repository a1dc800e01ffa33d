// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2cbz/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous conversion runs",
	Long: `History prints recent runs from the history database, newest first, with
the archives each successful run produced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := history.Open(historyPath())
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")

	rootCmd.AddCommand(historyCmd)
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		chapter := ""
		if r.ChapterStructure {
			chapter = ", chapter"
		}
		fmt.Fprintf(w, "#%d  %s  %s  %s%s -> %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Format, chapter, r.OutputRoot)
		for _, d := range r.Documents {
			fmt.Fprintf(w, "      %s (%d pages) %s\n", d.Document, d.Pages, d.ArchivePath)
		}
		if r.Message != "" {
			fmt.Fprintf(w, "      %s\n", r.Message)
		}
	}
}
