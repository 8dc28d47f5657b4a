package main

import (
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pricelens/pricelens/internal/model"
	"github.com/pricelens/pricelens/internal/normalize"
)

var (
	searchMinPrice  float64
	searchMaxPrice  float64
	searchMinRating float64
	searchSizes     []string
	searchColors    []string
	searchOccasions []string
	searchSources   []string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search configured marketplaces and rank comparable offers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, searchSources...)
		if err != nil {
			return err
		}
		defer env.Close()

		spec := buildFilterSpec(env.Synonyms)
		res, err := env.Service.Search(ctx, args[0], spec)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		if len(res.Groups) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no products found for %q\n", res.Query)
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d comparison groups for %q", len(res.Groups), res.Query)
		if len(res.Degraded) > 0 {
			fmt.Fprintf(out, " (degraded: %s)", strings.Join(res.Degraded, ", "))
		}
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTITLE\tMIN\tMAX\tRATING\tSOURCES")
		for i, g := range res.Groups {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				i+1, g.Title, g.MinPrice, g.MaxPrice, g.BestRating,
				strings.Join(g.Sources, ","),
			)
		}
		w.Flush()

		if len(res.BestBySource) > 0 {
			fmt.Fprintln(out, "\nbest offer by source:")
			sources := make([]string, 0, len(res.BestBySource))
			for src := range res.BestBySource {
				sources = append(sources, src)
			}
			sort.Strings(sources)
			for _, src := range sources {
				g := res.BestBySource[src]
				fmt.Fprintf(out, "  %s: %s (%s)\n", src, g.Title, g.MinPrice)
			}
		}
		return nil
	},
}

// buildFilterSpec converts CLI flags into a FilterSpec, canonicalizing
// attribute values with the same synonym table the normalizer uses so
// "x-large" filters match "XL" products.
func buildFilterSpec(synonyms *normalize.SynonymTable) model.FilterSpec {
	var spec model.FilterSpec
	if searchMinPrice > 0 {
		p := model.PriceFromFloat(searchMinPrice)
		spec.MinPrice = &p
	}
	if searchMaxPrice > 0 {
		p := model.PriceFromFloat(searchMaxPrice)
		spec.MaxPrice = &p
	}
	if searchMinRating > 0 {
		r := searchMinRating
		spec.MinRating = &r
	}
	for _, s := range searchSizes {
		spec.Sizes = append(spec.Sizes, synonyms.CanonicalSize(s))
	}
	for _, c := range searchColors {
		spec.Colors = append(spec.Colors, synonyms.CanonicalColor(c))
	}
	for _, o := range searchOccasions {
		spec.Occasions = append(spec.Occasions, synonyms.CanonicalOccasion(o))
	}
	return spec
}

func init() {
	searchCmd.Flags().Float64Var(&searchMinPrice, "min-price", 0, "minimum group price (inclusive)")
	searchCmd.Flags().Float64Var(&searchMaxPrice, "max-price", 0, "maximum group price (inclusive)")
	searchCmd.Flags().Float64Var(&searchMinRating, "min-rating", 0, "minimum best rating (0-5)")
	searchCmd.Flags().StringSliceVar(&searchSizes, "size", nil, "accepted sizes")
	searchCmd.Flags().StringSliceVar(&searchColors, "color", nil, "accepted colors")
	searchCmd.Flags().StringSliceVar(&searchOccasions, "occasion", nil, "accepted occasions")
	searchCmd.Flags().StringSliceVar(&searchSources, "sources", nil, "restrict to these sources")
	rootCmd.AddCommand(searchCmd)
}
