package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/repository"
)

var journalSince time.Duration

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the flow journal",
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count flow events by type",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := openJournalPool(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to connect journal database: %w", err)
		}
		defer pool.Close()

		since := time.Now().Add(-journalSince)
		counts, err := repository.NewFlowEventRepository(pool).CountSince(cmd.Context(), since)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "events since %s\n", humanize.Time(since))

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		var total int64
		for _, c := range counts {
			fmt.Fprintf(w, "%s\t%s\n", c.EventType, humanize.Comma(int64(c.Count)))
			total += int64(c.Count)
		}
		fmt.Fprintf(w, "total\t%s\n", humanize.Comma(total))
		return w.Flush()
	},
}

func init() {
	journalStatsCmd.Flags().DurationVar(&journalSince, "since", 24*time.Hour, "how far back to count")
	journalCmd.AddCommand(journalStatsCmd)
}
