package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	trendFrom      string
	trendTo        string
	trendBuckets   int
	trendBucketDur time.Duration
	trendThreshold float64
	trendLimit     int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Aggregate recorded history into price and volume trends",
}

var trendPricesCmd = &cobra.Command{
	Use:   "prices [query]",
	Short: "Price distribution histogram, optionally scoped to one query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tr, err := parseTimeRange(trendFrom, trendTo)
		if err != nil {
			return err
		}
		buckets := trendBuckets
		if buckets <= 0 {
			buckets = cfg.Trend.HistogramBuckets
		}

		hist, err := env.Trends.PriceDistribution(ctx, query, tr, buckets)
		if err != nil {
			return eris.Wrap(err, "trends")
		}

		out := cmd.OutOrStdout()
		scope := "all queries"
		if query != "" {
			scope = fmt.Sprintf("%q", query)
		}
		fmt.Fprintf(out, "price distribution for %s (%d observations)\n", scope, hist.Total)
		w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
		for _, b := range hist.Buckets {
			bar := strings.Repeat("#", b.Count)
			fmt.Fprintf(w, "%s - %s\t%d\t%s\n", b.Low, b.High, b.Count, bar)
		}
		return w.Flush()
	},
}

var trendVolumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Search volume over time, zero-filled per bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tr, err := parseTimeRange(trendFrom, trendTo)
		if err != nil {
			return err
		}

		buckets, err := env.Trends.SearchVolume(ctx, tr, trendBucketDur)
		if err != nil {
			return eris.Wrap(err, "trends")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		for _, b := range buckets {
			fmt.Fprintf(w, "%s\t%d\t%s\n",
				b.Start.Local().Format("2006-01-02 15:04"), b.Count,
				strings.Repeat("#", b.Count),
			)
		}
		return w.Flush()
	},
}

var trendDropsCmd = &cobra.Command{
	Use:   "drops",
	Short: "Products whose observed price fell past the drop threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tr, err := parseTimeRange(trendFrom, trendTo)
		if err != nil {
			return err
		}
		threshold := trendThreshold
		if threshold <= 0 {
			threshold = cfg.Trend.DropThresholdPct
		}

		drops, err := env.Trends.PriceDrops(ctx, threshold, tr)
		if err != nil {
			return eris.Wrap(err, "trends")
		}
		if len(drops) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no drops of %.0f%% or more\n", threshold)
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tQUERY\tOLD\tNEW\tDROP\tOBSERVED")
		for _, d := range drops {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%\t%s\n",
				d.Title, d.Query, d.OldPrice, d.NewPrice, d.PercentDrop,
				d.ObservedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

var trendQueriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Most frequently searched queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		limit := trendLimit
		if limit <= 0 {
			limit = cfg.Trend.TopQueriesDefault
		}

		top, err := env.Trends.TopQueries(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "trends")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "QUERY\tSEARCHES")
		for _, q := range top {
			fmt.Fprintf(w, "%s\t%d\n", q.Query, q.Count)
		}
		return w.Flush()
	},
}

func init() {
	trendsCmd.PersistentFlags().StringVar(&trendFrom, "from", "", "range start (YYYY-MM-DD or RFC3339)")
	trendsCmd.PersistentFlags().StringVar(&trendTo, "to", "", "range end, inclusive (YYYY-MM-DD or RFC3339)")
	trendPricesCmd.Flags().IntVar(&trendBuckets, "buckets", 0, "histogram bucket count")
	trendVolumeCmd.Flags().DurationVar(&trendBucketDur, "bucket", 24*time.Hour, "volume bucket width")
	trendDropsCmd.Flags().Float64Var(&trendThreshold, "threshold", 0, "minimum percent drop to report")
	trendQueriesCmd.Flags().IntVar(&trendLimit, "limit", 0, "number of queries to list")
	trendsCmd.AddCommand(trendPricesCmd, trendVolumeCmd, trendDropsCmd, trendQueriesCmd)
	rootCmd.AddCommand(trendsCmd)
}
