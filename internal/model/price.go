package model

import (
	"fmt"
	"math"
)

// Price is a fixed-point amount in minor units (cents) of the reference
// currency. Using integer cents keeps group statistics exact and avoids
// float drift when summing across sources.
type Price int64

// PriceFromFloat converts a decimal amount to Price, rounding to the
// nearest cent.
func PriceFromFloat(amount float64) Price {
	return Price(math.Round(amount * 100))
}

// Float64 returns the price as a decimal amount.
func (p Price) Float64() float64 {
	return float64(p) / 100
}

// String formats the price with two decimal places.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", p/100, p%100)
}

// PriceConfidence marks how reliable a parsed price is.
type PriceConfidence string

const (
	// PriceConfidenceHigh means the price was parsed with a known
	// source-specific format and converted with a configured rate.
	PriceConfidenceHigh PriceConfidence = "high"
	// PriceConfidenceLow means a permissive fallback parse was used.
	PriceConfidenceLow PriceConfidence = "low"
)
