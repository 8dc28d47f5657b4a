package model

// FilterSpec is the user-configured constraint set applied to comparison
// groups. Nil/empty fields are unconstrained. Price bounds are inclusive
// and evaluated against a group's minimum price, so the cheapest offer
// decides inclusion. Attribute sets accept a group when any member
// matches.
type FilterSpec struct {
	MinPrice  *Price   `json:"min_price,omitempty"`
	MaxPrice  *Price   `json:"max_price,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	Sizes     []string `json:"sizes,omitempty"`
	Colors    []string `json:"colors,omitempty"`
	Occasions []string `json:"occasions,omitempty"`
}

// IsZero reports whether no constraint is active.
func (f FilterSpec) IsZero() bool {
	return f.MinPrice == nil && f.MaxPrice == nil && f.MinRating == nil &&
		len(f.Sizes) == 0 && len(f.Colors) == 0 && len(f.Occasions) == 0
}

// Accepts evaluates every active constraint against a group.
func (f FilterSpec) Accepts(g *ComparisonGroup) bool {
	if f.MinPrice != nil && g.MinPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && g.MinPrice > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil {
		// An unknown best rating fails any rating floor.
		if !g.BestRating.Known || g.BestRating.Value < *f.MinRating {
			return false
		}
	}
	if !anyMemberMatches(g, f.Sizes, func(p Product) string { return p.Size }) {
		return false
	}
	if !anyMemberMatches(g, f.Colors, func(p Product) string { return p.Color }) {
		return false
	}
	if !anyMemberMatches(g, f.Occasions, func(p Product) string { return p.Occasion }) {
		return false
	}
	return true
}

func anyMemberMatches(g *ComparisonGroup, accepted []string, attr func(Product) string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, m := range g.Members {
		v := attr(m)
		if v == "" {
			continue
		}
		for _, a := range accepted {
			if v == a {
				return true
			}
		}
	}
	return false
}
