package match

import (
	"sort"
	"strings"
)

// stopwords lists tokens too common in listing titles to carry matching
// signal. Titles are already casefolded by the normalizer.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"for": true, "with": true, "of": true, "in": true, "on": true,
	"by": true, "to": true, "new": true, "pack": true, "set": true,
	"combo": true, "free": true, "offer": true, "sale": true,
	"best": true, "premium": true, "quality": true, "latest": true,
}

// aliases folds common product-word variants onto one token so that
// "tee" and "t-shirt" contribute the same matching signal.
var aliases = map[string]string{
	"tee":      "shirt",
	"tshirt":   "shirt",
	"tshirts":  "shirt",
	"shirts":   "shirt",
	"trousers": "pants",
	"trouser":  "pants",
	"sneaker":  "shoes",
	"sneakers": "shoes",
	"shoe":     "shoes",
	"kurtas":   "kurta",
	"sarees":   "saree",
	"sari":     "saree",
}

// Tokenize reduces a canonical title to its significant tokens: split on
// non-alphanumeric runs, drop stopwords and single characters, fold
// variant spellings, dedupe, sort.
func Tokenize(title string) []string {
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !isAlphanumeric(r)
	})

	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		if canon, ok := aliases[f]; ok {
			f = canon
		}
		if !seen[f] {
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	sort.Strings(tokens)
	return tokens
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// Jaccard computes token-set similarity: |intersection| / |union|. Two
// empty sets are not similar (0), which keeps token-free titles from
// merging with everything.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inA := make(map[string]bool, len(a))
	for _, t := range a {
		inA[t] = true
	}
	intersection := 0
	for _, t := range b {
		if inA[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
