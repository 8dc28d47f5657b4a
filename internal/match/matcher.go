// Package match partitions one query's normalized products into
// comparison groups with incremental first-fit clustering: each product
// is compared against the members of existing groups in arrival order and
// joins the first group where any member clears the similarity threshold,
// else starts a singleton. The result is linear in practice and deterministic for a
// fixed input order, but arrival order matters by design: because adapter
// completion order varies with source latency, grouping can differ
// between otherwise identical runs. That variance is confined to group
// composition; filter and rank output stays deterministic for a fixed
// group set.
package match

import (
	"math"
	"strings"

	"github.com/pricelens/pricelens/internal/config"
	"github.com/pricelens/pricelens/internal/model"
)

// Matcher groups products that represent the same real-world item.
type Matcher struct {
	threshold float64
	bandWidth float64
}

// New builds a matcher from configuration. Zero values fall back to a
// 0.6 similarity threshold and 10% price bands.
func New(cfg config.MatcherConfig) *Matcher {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	width := cfg.PriceBandWidth
	if width <= 0 {
		width = 0.10
	}
	return &Matcher{threshold: threshold, bandWidth: width}
}

// key is a product's matching key: its significant title tokens plus a
// coarse price band. The band keeps cheap and expensive items apart even
// when their titles collide.
type key struct {
	tokens []string
	joined string
	band   int
}

func (m *Matcher) keyFor(p model.Product) key {
	tokens := Tokenize(p.Title)
	return key{
		tokens: tokens,
		joined: strings.Join(tokens, " "),
		band:   m.priceBand(p.Price),
	}
}

// priceBand assigns a logarithmic band index so each band spans a fixed
// relative width of the price scale.
func (m *Matcher) priceBand(p model.Price) int {
	amount := p.Float64()
	if amount < 1 {
		return 0
	}
	return int(math.Floor(math.Log(amount) / math.Log(1+m.bandWidth)))
}

// matches reports whether two product keys are compatible: identical
// keys always merge; otherwise token similarity must clear the threshold
// and the price bands must be equal or adjacent.
func (m *Matcher) matches(a, b key) bool {
	if a.joined == b.joined && a.band == b.band {
		return true
	}
	bandDiff := a.band - b.band
	if bandDiff < -1 || bandDiff > 1 {
		return false
	}
	return Jaccard(a.tokens, b.tokens) >= m.threshold
}

// Group partitions products into comparison groups. It always succeeds;
// group quality is heuristic, not a correctness contract.
func (m *Matcher) Group(products []model.Product) []*model.ComparisonGroup {
	var groups []*model.ComparisonGroup
	var keys [][]key // member keys per group, parallel to groups

	for _, p := range products {
		k := m.keyFor(p)

		joined := false
	scan:
		for i, members := range keys {
			for _, mk := range members {
				if m.matches(k, mk) {
					groups[i].Add(p)
					keys[i] = append(keys[i], k)
					joined = true
					break scan
				}
			}
		}
		if !joined {
			groups = append(groups, model.NewComparisonGroup(p))
			keys = append(keys, []key{k})
		}
	}

	return groups
}
