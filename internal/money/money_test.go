package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "25.99", Format(2599))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "51.98", Format(5198))
}

func TestTax(t *testing.T) {
	tests := []struct {
		subtotal, bps, want int64
	}{
		{5198, 0, 0},
		{5198, 1000, 520}, // 519.8
		{1000, 825, 83},   // 82.5 rounds up
		{999, 825, 82},    // 82.4175
		{0, 825, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tax(tt.subtotal, tt.bps), "Tax(%d, %d)", tt.subtotal, tt.bps)
	}
}

func TestLine(t *testing.T) {
	c, err := Line(2599, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5198), c)

	c, err = Line(math.MaxInt64, 0)
	require.NoError(t, err)
	assert.Zero(t, c)

	_, err = Line(math.MaxInt64/2+1, 2)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Line(-1, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSum(t *testing.T) {
	c, err := Sum(5198, 500, 520)
	require.NoError(t, err)
	assert.Equal(t, int64(6218), c)

	_, err = Sum(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Sum(10, -1)
	assert.ErrorIs(t, err, ErrOverflow)
}
