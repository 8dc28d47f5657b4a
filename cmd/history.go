package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pricelens/pricelens/internal/model"
)

var (
	historyFrom  string
	historyTo    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded searches, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tr, err := parseTimeRange(historyFrom, historyTo)
		if err != nil {
			return err
		}

		entries, err := env.Store.List(ctx, tr)
		if err != nil {
			return eris.Wrap(err, "history")
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no history in range")
			return nil
		}
		if historyLimit > 0 && len(entries) > historyLimit {
			// Entries arrive ascending; keep the most recent ones.
			entries = entries[len(entries)-historyLimit:]
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tQUERY\tRESULTS\tSOURCES\tMIN\tAVG\tMAX")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				e.Query, e.ResultCount, e.SourceCount,
				e.Prices.Min, e.Prices.Avg, e.Prices.Max,
			)
		}
		return w.Flush()
	},
}

// parseTimeRange builds an inclusive range from the --from and --to
// flags. Dates without a time component cover the whole day on the --to
// side. Empty flags leave the corresponding bound open.
func parseTimeRange(from, to string) (model.TimeRange, error) {
	var tr model.TimeRange
	if from != "" {
		t, err := parseTimeFlag(from)
		if err != nil {
			return tr, eris.Wrapf(err, "history: bad --from %q", from)
		}
		tr.From = t
	}
	if to != "" {
		t, dateOnly, err := parseTimeFlagDate(to)
		if err != nil {
			return tr, eris.Wrapf(err, "history: bad --to %q", to)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		tr.To = t
	}
	return tr, nil
}

func parseTimeFlag(s string) (time.Time, error) {
	t, _, err := parseTimeFlagDate(s)
	return t, err
}

func parseTimeFlagDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}

func init() {
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "range start (YYYY-MM-DD or RFC3339)")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "range end, inclusive (YYYY-MM-DD or RFC3339)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "show only the most recent N entries")
	rootCmd.AddCommand(historyCmd)
}
