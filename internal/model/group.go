package model

import "sort"

// ComparisonGroup is a cluster of products believed to represent the same
// real-world item across sources. Built by the matcher in a single pass;
// each product belongs to exactly one group per query run.
type ComparisonGroup struct {
	Title      string    `json:"title"` // representative: first member's canonical title
	Members    []Product `json:"members"`
	MinPrice   Price     `json:"min_price"`
	MaxPrice   Price     `json:"max_price"`
	AvgPrice   Price     `json:"avg_price"`
	BestRating Rating    `json:"best_rating"`
	Reviews    int       `json:"reviews"`
	Sources    []string  `json:"sources"`
}

// NewComparisonGroup starts a singleton group seeded with one product.
func NewComparisonGroup(p Product) *ComparisonGroup {
	g := &ComparisonGroup{Title: p.Title}
	g.Add(p)
	return g
}

// Add appends a member and refreshes the derived statistics.
func (g *ComparisonGroup) Add(p Product) {
	g.Members = append(g.Members, p)

	var sum int64
	min, max := g.Members[0].Price, g.Members[0].Price
	best := UnknownRating()
	reviews := 0
	seen := make(map[string]bool, len(g.Members))
	sources := make([]string, 0, len(g.Members))

	for _, m := range g.Members {
		sum += int64(m.Price)
		if m.Price < min {
			min = m.Price
		}
		if m.Price > max {
			max = m.Price
		}
		if best.Less(m.Rating) {
			best = m.Rating
		}
		reviews += m.Reviews
		if !seen[m.Source] {
			seen[m.Source] = true
			sources = append(sources, m.Source)
		}
	}
	sort.Strings(sources)

	g.MinPrice = min
	g.MaxPrice = max
	g.AvgPrice = Price(sum / int64(len(g.Members)))
	g.BestRating = best
	g.Reviews = reviews
	g.Sources = sources
}

// HasSource reports whether any member came from the given source.
func (g *ComparisonGroup) HasSource(source string) bool {
	for _, s := range g.Sources {
		if s == source {
			return true
		}
	}
	return false
}
