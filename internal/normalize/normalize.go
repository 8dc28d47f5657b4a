package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/pricelens/pricelens/internal/config"
	"github.com/pricelens/pricelens/internal/model"
)

// ErrMalformedListing marks a raw listing that cannot be normalized:
// empty title, or a price that does not parse to a non-negative amount.
// Callers drop the listing and continue the query.
var ErrMalformedListing = eris.New("malformed listing")

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	numberRe     = regexp.MustCompile(`\d+(\.\d+)?`)
	nonNumericRe = regexp.MustCompile(`[^\d.]`)
)

// Normalizer maps raw per-source listings into canonical products. Pure
// transformation, safe for concurrent use.
type Normalizer struct {
	formats  map[string]config.SourceFormat
	rates    map[string]float64
	refCur   string
	synonyms *SynonymTable
}

// New builds a normalizer from the source configuration. A nil synonym
// table falls back to the built-in defaults.
func New(cfg config.SourcesConfig, synonyms *SynonymTable) *Normalizer {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Normalizer{
		formats:  cfg.Formats,
		rates:    cfg.Rates,
		refCur:   cfg.ReferenceCurrency,
		synonyms: synonyms,
	}
}

// Normalize converts one raw listing into a Product, or fails with
// ErrMalformedListing.
func (n *Normalizer) Normalize(raw model.RawListing) (model.Product, error) {
	title := CanonicalTitle(raw.Title)
	if title == "" {
		return model.Product{}, eris.Wrapf(ErrMalformedListing, "source %s: empty title", raw.Source)
	}

	price, confidence, err := n.parsePrice(raw)
	if err != nil {
		return model.Product{}, err
	}

	return model.Product{
		ID:              uuid.New().String(),
		Source:          raw.Source,
		SourceID:        raw.SourceID,
		Title:           title,
		RawTitle:        strings.TrimSpace(raw.Title),
		Price:           price,
		PriceConfidence: confidence,
		Rating:          n.parseRating(raw),
		Reviews:         raw.Reviews,
		Size:            n.synonyms.CanonicalSize(raw.Size),
		Color:           n.synonyms.CanonicalColor(raw.Color),
		Occasion:        n.synonyms.CanonicalOccasion(raw.Occasion),
		URL:             raw.URL,
	}, nil
}

// CanonicalTitle casefolds, NFKC-normalizes, and collapses whitespace.
func CanonicalTitle(title string) string {
	t := norm.NFKC.String(title)
	t = strings.ToLower(t)
	t = multiSpaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// parsePrice applies the source's format table when known, otherwise a
// permissive numeric parse flagged with low confidence.
func (n *Normalizer) parsePrice(raw model.RawListing) (model.Price, model.PriceConfidence, error) {
	format, known := n.formats[raw.Source]
	if !known {
		amount, err := permissiveParse(raw.PriceText)
		if err != nil {
			return 0, "", eris.Wrapf(ErrMalformedListing, "source %s: price %q", raw.Source, raw.PriceText)
		}
		return model.PriceFromFloat(amount), model.PriceConfidenceLow, nil
	}

	amount, err := parseWithFormat(raw.PriceText, format)
	if err != nil {
		return 0, "", eris.Wrapf(ErrMalformedListing, "source %s: price %q", raw.Source, raw.PriceText)
	}

	confidence := model.PriceConfidenceHigh
	if format.Currency != "" && format.Currency != n.refCur {
		rate, ok := n.rates[format.Currency]
		if !ok {
			// No conversion rate configured: keep the amount but flag it.
			rate = 1.0
			confidence = model.PriceConfidenceLow
		}
		amount *= rate
	}

	return model.PriceFromFloat(amount), confidence, nil
}

// parseWithFormat strips currency symbols and thousand separators per the
// source format, then parses the remaining decimal.
func parseWithFormat(text string, f config.SourceFormat) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, eris.New("empty price")
	}

	if f.ThousandSeparator != "" {
		s = strings.ReplaceAll(s, f.ThousandSeparator, "")
	}
	if f.DecimalSeparator != "" && f.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, f.DecimalSeparator, ".")
	}
	s = nonNumericRe.ReplaceAllString(s, "")
	if s == "" {
		return 0, eris.New("no digits in price")
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrap(err, "parse price")
	}
	if amount < 0 {
		return 0, eris.New("negative price")
	}
	return amount, nil
}

// permissiveParse extracts the first number from arbitrary price text.
func permissiveParse(text string) (float64, error) {
	s := nonNumericRe.ReplaceAllString(strings.TrimSpace(text), "")
	match := numberRe.FindString(s)
	if match == "" {
		return 0, eris.New("no digits in price")
	}
	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, eris.Wrap(err, "parse price")
	}
	return amount, nil
}

// parseRating extracts a numeric rating from text like "4.5 out of 5" or
// "8.9/10" and rescales it linearly onto 0-5. Absent or unparseable
// ratings stay unknown.
func (n *Normalizer) parseRating(raw model.RawListing) model.Rating {
	text := strings.TrimSpace(raw.RatingText)
	if text == "" {
		return model.UnknownRating()
	}

	match := numberRe.FindString(text)
	if match == "" {
		return model.UnknownRating()
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return model.UnknownRating()
	}

	scale := raw.RatingScale
	if scale == 0 {
		if f, ok := n.formats[raw.Source]; ok && f.RatingScale > 0 {
			scale = f.RatingScale
		} else {
			scale = 5.0
		}
	}

	value = value * 5.0 / scale
	if value < 0 || value > 5 {
		return model.UnknownRating()
	}
	return model.KnownRating(value)
}
