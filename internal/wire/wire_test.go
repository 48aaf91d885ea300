package wire

import (
	"testing"

	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPesos(t *testing.T) {
	got := ToPesos(kernel.Centavos(155000))
	assert.True(t, decimal.NewFromFloat(1550).Equal(got))
}

func TestFromPesosJSON_RoundTrip(t *testing.T) {
	c, err := FromPesosJSON(decimal.NewFromFloat(1550.00))
	require.NoError(t, err)
	assert.Equal(t, kernel.Centavos(155000), c)
}

func TestFromPesosJSON_RejectsThreeDecimals(t *testing.T) {
	_, err := FromPesosJSON(decimal.RequireFromString("10.125"))
	assert.Error(t, err)
}
