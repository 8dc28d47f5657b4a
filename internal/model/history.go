package model

import "time"

// TimeRange bounds a history query. Zero endpoints are unbounded; both
// bounds are inclusive.
type TimeRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls within the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// PriceSummary captures min/max/avg of the returned groups' min prices at
// record time.
type PriceSummary struct {
	Min Price `json:"min"`
	Max Price `json:"max"`
	Avg Price `json:"avg"`
}

// SummarizeGroups computes the price summary over a result set. An empty
// result yields a zero summary.
func SummarizeGroups(groups []*ComparisonGroup) PriceSummary {
	if len(groups) == 0 {
		return PriceSummary{}
	}
	var sum int64
	min, max := groups[0].MinPrice, groups[0].MinPrice
	for _, g := range groups {
		sum += int64(g.MinPrice)
		if g.MinPrice < min {
			min = g.MinPrice
		}
		if g.MinPrice > max {
			max = g.MinPrice
		}
	}
	return PriceSummary{Min: min, Max: max, Avg: Price(sum / int64(len(groups)))}
}

// HistoryEntry is the immutable record of one executed query. Entries are
// append-only and never mutated; retention pruning removes whole entries.
type HistoryEntry struct {
	ID          string       `json:"id"`
	Query       string       `json:"query"`
	Filters     FilterSpec   `json:"filters"`
	Timestamp   time.Time    `json:"timestamp"`
	ResultCount int          `json:"result_count"`
	SourceCount int          `json:"source_count"`
	Prices      PriceSummary `json:"prices"`
}

// GroupSnapshot records one group's headline price at query time. Written
// alongside the owning history entry; used for price-drop trends.
type GroupSnapshot struct {
	EntryID     string    `json:"entry_id"`
	Query       string    `json:"query"`
	Title       string    `json:"title"`
	MinPrice    Price     `json:"min_price"`
	SourceCount int       `json:"source_count"`
	Timestamp   time.Time `json:"timestamp"`
}
