package model

import "time"

// HistogramBucket is one bin of a price distribution. Low is inclusive,
// High exclusive except for the last bucket.
type HistogramBucket struct {
	Low   Price `json:"low"`
	High  Price `json:"high"`
	Count int   `json:"count"`
}

// Histogram is an ordered price distribution over recorded result
// summaries.
type Histogram struct {
	Buckets []HistogramBucket `json:"buckets"`
	Total   int               `json:"total"`
}

// VolumeBucket counts queries executed within one time bucket. Empty
// intervals are materialized with a zero count rather than omitted.
type VolumeBucket struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// PriceDrop reports a product whose recorded min price fell between the
// earliest and latest snapshot in scope.
type PriceDrop struct {
	Title       string    `json:"title"`
	Query       string    `json:"query"`
	OldPrice    Price     `json:"old_price"`
	NewPrice    Price     `json:"new_price"`
	PercentDrop float64   `json:"percent_drop"`
	ObservedAt  time.Time `json:"observed_at"`
}

// QueryCount pairs a query string with how often it was executed.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}
