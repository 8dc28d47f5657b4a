package normalize

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SynonymTable maps canonical attribute values to the variants sources
// use for them. Lookups are case-insensitive; unmapped values pass
// through verbatim so odd source vocabulary never costs recall.
type SynonymTable struct {
	Sizes     map[string][]string `yaml:"sizes"`
	Colors    map[string][]string `yaml:"colors"`
	Occasions map[string][]string `yaml:"occasions"`

	sizeIndex     map[string]string
	colorIndex    map[string]string
	occasionIndex map[string]string
}

// DefaultSynonyms returns the built-in synonym table covering the common
// marketplace attribute vocabulary.
func DefaultSynonyms() *SynonymTable {
	t := &SynonymTable{
		Sizes: map[string][]string{
			"XS":  {"xs", "extra small", "x-small"},
			"S":   {"s", "small", "sm"},
			"M":   {"m", "medium", "med"},
			"L":   {"l", "large", "lg"},
			"XL":  {"xl", "x-large", "extra large"},
			"XXL": {"xxl", "2xl", "xx-large"},
		},
		Colors: map[string][]string{
			"gray":  {"grey", "charcoal", "slate"},
			"red":   {"crimson", "maroon", "scarlet"},
			"blue":  {"navy", "cobalt"},
			"pink":  {"rose", "blush"},
			"brown": {"tan", "khaki", "beige"},
		},
		Occasions: map[string][]string{
			"casual":  {"everyday", "daily wear"},
			"formal":  {"business", "office wear"},
			"party":   {"evening", "cocktail"},
			"wedding": {"bridal"},
			"beach":   {"vacation", "resort"},
		},
	}
	t.buildIndexes()
	return t
}

// LoadSynonyms reads a synonym table from a YAML file and merges it over
// the built-in defaults. File entries win on conflicts.
func LoadSynonyms(path string) (*SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read synonyms %s", path)
	}

	var file SynonymTable
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "normalize: parse synonyms")
	}

	t := DefaultSynonyms()
	for canon, vals := range file.Sizes {
		t.Sizes[canon] = vals
	}
	for canon, vals := range file.Colors {
		t.Colors[canon] = vals
	}
	for canon, vals := range file.Occasions {
		t.Occasions[canon] = vals
	}
	t.buildIndexes()
	return t, nil
}

func (t *SynonymTable) buildIndexes() {
	t.sizeIndex = invert(t.Sizes)
	t.colorIndex = invert(t.Colors)
	t.occasionIndex = invert(t.Occasions)
}

func invert(m map[string][]string) map[string]string {
	idx := make(map[string]string, len(m)*3)
	for canon, variants := range m {
		idx[strings.ToLower(canon)] = canon
		for _, v := range variants {
			idx[strings.ToLower(v)] = canon
		}
	}
	return idx
}

// CanonicalSize maps a raw size string to its canonical value, or returns
// the cleaned input when unmapped.
func (t *SynonymTable) CanonicalSize(raw string) string {
	return canonical(t.sizeIndex, raw)
}

// CanonicalColor maps a raw color name to its canonical value.
func (t *SynonymTable) CanonicalColor(raw string) string {
	return canonical(t.colorIndex, raw)
}

// CanonicalOccasion maps a raw occasion to its canonical value.
func (t *SynonymTable) CanonicalOccasion(raw string) string {
	return canonical(t.occasionIndex, raw)
}

func canonical(idx map[string]string, raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}
	if canon, ok := idx[cleaned]; ok {
		return canon
	}
	return cleaned
}
