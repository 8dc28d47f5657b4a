package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeRange_Contains(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	r := TimeRange{From: from, To: to}

	assert.True(t, r.Contains(from), "bounds are inclusive")
	assert.True(t, r.Contains(to))
	assert.True(t, r.Contains(from.AddDate(0, 0, 10)))
	assert.False(t, r.Contains(from.Add(-time.Second)))
	assert.False(t, r.Contains(to.Add(time.Second)))
}

func TestTimeRange_OpenBounds(t *testing.T) {
	anytime := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, TimeRange{}.Contains(anytime))

	onlyFrom := TimeRange{From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.False(t, onlyFrom.Contains(anytime))
	assert.True(t, onlyFrom.Contains(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSummarizeGroups(t *testing.T) {
	groups := []*ComparisonGroup{
		NewComparisonGroup(Product{Source: "a", Price: Price(1000)}),
		NewComparisonGroup(Product{Source: "b", Price: Price(3000)}),
		NewComparisonGroup(Product{Source: "c", Price: Price(2000)}),
	}

	s := SummarizeGroups(groups)
	assert.Equal(t, Price(1000), s.Min)
	assert.Equal(t, Price(3000), s.Max)
	assert.Equal(t, Price(2000), s.Avg)
}

func TestSummarizeGroups_Empty(t *testing.T) {
	assert.Equal(t, PriceSummary{}, SummarizeGroups(nil))
}
