package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComparisonGroup_SingletonStats(t *testing.T) {
	g := NewComparisonGroup(Product{
		Source: "amazon",
		Title:  "red cotton t-shirt",
		Price:  Price(1980),
		Rating: KnownRating(4.1),
	})

	assert.Equal(t, "red cotton t-shirt", g.Title)
	assert.Equal(t, Price(1980), g.MinPrice)
	assert.Equal(t, Price(1980), g.MaxPrice)
	assert.Equal(t, Price(1980), g.AvgPrice)
	assert.Equal(t, KnownRating(4.1), g.BestRating)
	assert.Equal(t, []string{"amazon"}, g.Sources)
}

func TestComparisonGroup_AddRecomputesStats(t *testing.T) {
	g := NewComparisonGroup(Product{
		Source: "flipkart", Title: "red cotton t-shirt",
		Price: Price(2100), Rating: KnownRating(3.9), Reviews: 12,
	})
	g.Add(Product{
		Source: "amazon", Title: "red cotton tee",
		Price: Price(1900), Rating: KnownRating(4.4), Reviews: 30,
	})

	assert.Equal(t, Price(1900), g.MinPrice)
	assert.Equal(t, Price(2100), g.MaxPrice)
	assert.Equal(t, Price(2000), g.AvgPrice)
	assert.Equal(t, KnownRating(4.4), g.BestRating)
	assert.Equal(t, 42, g.Reviews)
	assert.Equal(t, []string{"amazon", "flipkart"}, g.Sources, "sources are sorted")
	// Representative title stays the first member's.
	assert.Equal(t, "red cotton t-shirt", g.Title)
}

func TestComparisonGroup_UnknownRatingNeverBeatsKnown(t *testing.T) {
	g := NewComparisonGroup(Product{Source: "a", Price: 100, Rating: KnownRating(2.0)})
	g.Add(Product{Source: "b", Price: 200, Rating: UnknownRating()})

	assert.Equal(t, KnownRating(2.0), g.BestRating)
}

func TestComparisonGroup_DuplicateSourceCountedOnce(t *testing.T) {
	g := NewComparisonGroup(Product{Source: "amazon", Price: 100})
	g.Add(Product{Source: "amazon", Price: 150})

	assert.Equal(t, []string{"amazon"}, g.Sources)
	assert.True(t, g.HasSource("amazon"))
	assert.False(t, g.HasSource("myntra"))
}
