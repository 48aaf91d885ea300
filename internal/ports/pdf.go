package ports

import (
	"bytes"
	"context"
	"fmt"
)

// PlaintextPDFRenderer is a stub PDFRenderer: it emits a plain-text
// rendering of the statement rather than a real PDF byte stream. No PDF
// generation library appears anywhere in the reference corpus, and the
// statement layout is still settling (see Open Questions), so a real PDF
// renderer is not worth wiring yet; this keeps the port's shape exercised
// without committing to a rendering dependency that has no grounding.
type PlaintextPDFRenderer struct{}

// Render writes a human-readable statement body as the "PDF" bytes.
func (PlaintextPDFRenderer) Render(ctx context.Context, in StatementInput) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Statement of Account\nTenant: %s\nUnit: %s\nFiscal Year: %d\n\n", in.TenantID, in.UnitID, in.FiscalYear)
	for _, row := range in.Rows {
		fmt.Fprintf(&buf, "%s  %-40s  %10d  %10d\n", row.Date.Format("2006-01-02"), row.Description, row.Amount, row.Balance)
	}
	return buf.Bytes(), nil
}
