// Package rank filters comparison groups against a FilterSpec and orders
// the survivors deterministically. Groups are never mutated; the engine
// returns a fresh ordered view, so re-running it over the same group set
// and spec always yields an identical order.
package rank

import (
	"sort"

	"github.com/pricelens/pricelens/internal/model"
)

// Apply returns the groups satisfying every active constraint, ranked by:
// best rating descending (unknown ratings after all known ones), then min
// price ascending, then contributing source count descending. The sort is
// stable, so groups tied on all three keys keep their incoming order.
func Apply(groups []*model.ComparisonGroup, spec model.FilterSpec) []*model.ComparisonGroup {
	out := make([]*model.ComparisonGroup, 0, len(groups))
	for _, g := range groups {
		if spec.Accepts(g) {
			out = append(out, g)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BestRating != b.BestRating {
			// Higher ratings first; unknown sorts after every known rating.
			return b.BestRating.Less(a.BestRating)
		}
		if a.MinPrice != b.MinPrice {
			return a.MinPrice < b.MinPrice
		}
		return len(a.Sources) > len(b.Sources)
	})

	return out
}

// BestBySource picks, per source, the first ranked group that source
// contributes to. Iterating ranked order means each source's entry is its
// strongest offer.
func BestBySource(ranked []*model.ComparisonGroup) map[string]*model.ComparisonGroup {
	best := make(map[string]*model.ComparisonGroup)
	for _, g := range ranked {
		for _, s := range g.Sources {
			if _, ok := best[s]; !ok {
				best[s] = g
			}
		}
	}
	return best
}
