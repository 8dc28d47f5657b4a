package model

// RawListing is one unprocessed product record exactly as a source adapter
// returned it. Prices, ratings, and attributes are in whatever shape the
// source uses; the normalizer owns the translation into Product and raw
// listings are discarded once a query's normalization pass completes.
type RawListing struct {
	Source      string  `json:"source"`
	SourceID    string  `json:"source_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	PriceText   string  `json:"price_text"`
	RatingText  string  `json:"rating_text,omitempty"`
	RatingScale float64 `json:"rating_scale,omitempty"` // overrides the source format's scale when set
	Reviews     int     `json:"reviews,omitempty"`
	Size        string  `json:"size,omitempty"`
	Color       string  `json:"color,omitempty"`
	Occasion    string  `json:"occasion,omitempty"`
	URL         string  `json:"url,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Product is the canonical, normalized form of one listing. Immutable
// after creation; lives for a single query's results.
type Product struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	SourceID        string          `json:"source_id"`
	Title           string          `json:"title"`     // casefolded, whitespace-collapsed
	RawTitle        string          `json:"raw_title"` // as the source returned it
	Price           Price           `json:"price"`
	PriceConfidence PriceConfidence `json:"price_confidence"`
	Rating          Rating          `json:"rating"`
	Reviews         int             `json:"reviews,omitempty"`
	Size            string          `json:"size,omitempty"`
	Color           string          `json:"color,omitempty"`
	Occasion        string          `json:"occasion,omitempty"`
	URL             string          `json:"url,omitempty"`
}
