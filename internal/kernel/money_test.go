package kernel

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCentavos_RoundTrip(t *testing.T) {
	cases := []string{"0", "1.00", "1550.00", "-50000.01", "0.01", "-0.01"}
	for _, s := range cases {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		c, err := ToCentavos(d)
		require.NoError(t, err)
		back := FromCentavos(c)
		assert.True(t, d.Equal(back), "round trip mismatch for %s: got %s", s, back)
	}
}

func TestToCentavos_HalfAwayFromZero(t *testing.T) {
	d := decimal.NewFromFloat(1.005)
	c, err := ToCentavos(d)
	require.NoError(t, err)
	assert.Equal(t, Centavos(101), c)

	d2 := decimal.NewFromFloat(-1.005)
	c2, err := ToCentavos(d2)
	require.NoError(t, err)
	assert.Equal(t, Centavos(-101), c2)
}

func TestSumWithinTolerance(t *testing.T) {
	assert.True(t, SumWithinTolerance(100, []Centavos{40, 60}, 0))
	assert.True(t, SumWithinTolerance(100, []Centavos{40, 61}, 1))
	assert.False(t, SumWithinTolerance(100, []Centavos{40, 61}, 0))
}
