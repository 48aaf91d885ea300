// Package wire converts between kernel.Centavos and decimal.Decimal pesos
// on top of kernel.FromCentavos/ToCentavos, mirroring the teacher's
// decimalToPgNumeric/pgNumericToDecimal pair but generalized from the SQL
// numeric wire format to plain JSON pesos.
package wire

import (
	"fmt"

	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/shopspring/decimal"
)

// ToPesos converts centavos to a decimal.Decimal suitable for a JSON
// response body, for display only.
func ToPesos(c kernel.Centavos) decimal.Decimal {
	return kernel.FromCentavos(c)
}

// FromPesosJSON parses a wire-format pesos value into centavos, rejecting
// values carrying more than 2 decimal digits as required by §6.
func FromPesosJSON(pesos decimal.Decimal) (kernel.Centavos, error) {
	if pesos.Exponent() < -2 {
		return 0, fmt.Errorf("%w: more than 2 decimal digits", kernel.ErrInvalidAmount)
	}
	return kernel.ToCentavos(pesos)
}
