package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightConversions(t *testing.T) {
	assert.Equal(t, 143, KGToLb(65)) // 143.30 lb
	assert.Equal(t, StonesPounds{Stones: 10, Pounds: 3}, KGToStones(65))

	assert.Equal(t, 220, KGToLb(100)) // 220.46 lb
	assert.Equal(t, StonesPounds{Stones: 15, Pounds: 10}, KGToStones(100))
}

func TestHeightConversions(t *testing.T) {
	assert.Equal(t, 65, CMToIn(165)) // 64.96 in
	assert.Equal(t, FeetInches{Feet: 5, Inches: 5}, CMToFeet(165))

	assert.Equal(t, 71, CMToIn(180)) // 70.87 in
	assert.Equal(t, FeetInches{Feet: 5, Inches: 11}, CMToFeet(180))
}

func TestBMI(t *testing.T) {
	bmi, ok := BMI(ptr(65.0), ptr(165))
	assert.True(t, ok)
	assert.InDelta(t, 23.9, bmi, 1e-9) // 65 / 1.65^2 = 23.875

	_, ok = BMI(nil, ptr(165))
	assert.False(t, ok)
	_, ok = BMI(ptr(65.0), nil)
	assert.False(t, ok)
	_, ok = BMI(ptr(65.0), ptr(0))
	assert.False(t, ok)
}
