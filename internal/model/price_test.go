package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceFromFloat_Rounds(t *testing.T) {
	assert.Equal(t, Price(1980), PriceFromFloat(19.80))
	assert.Equal(t, Price(1999), PriceFromFloat(19.989))
	assert.Equal(t, Price(123450), PriceFromFloat(1234.50))
	assert.Equal(t, Price(0), PriceFromFloat(0))
}

func TestPrice_String(t *testing.T) {
	assert.Equal(t, "19.80", Price(1980).String())
	assert.Equal(t, "1234.50", Price(123450).String())
	assert.Equal(t, "0.05", Price(5).String())
	assert.Equal(t, "3.00", Price(300).String())
}

func TestPrice_Float64(t *testing.T) {
	assert.InDelta(t, 19.80, Price(1980).Float64(), 1e-9)
}
