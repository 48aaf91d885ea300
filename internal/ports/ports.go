// Package ports holds the narrow external-system interfaces the core
// services call through instead of importing a concrete SDK directly:
// exchange-rate lookup, outbound email, statement PDF rendering, and the
// blob store behind import/export bundles. LoggingEmailDispatcher,
// FixedExchangeRateProvider and PlaintextPDFRenderer need no credentials;
// ImportFileStore has only the S3 adapter.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateProvider looks up a currency conversion rate as of a date.
// Neither cmd/api nor cmd/samsctl constructs one, and no service calls it.
type ExchangeRateProvider interface {
	FetchRate(ctx context.Context, base, quote string, asOf time.Time) (decimal.Decimal, error)
}

// EmailDispatcher sends an outbound email. Neither cmd/api nor cmd/samsctl
// constructs one, and no service calls it.
type EmailDispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is one file attached to a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PDFRenderer renders a statement of account into a PDF document.
type PDFRenderer interface {
	Render(ctx context.Context, statement StatementInput) ([]byte, error)
}

// StatementInput is the subset of a statement of account a PDFRenderer
// needs, kept independent of internal/service's richer StatementOfAccount
// type so this package never imports service.
type StatementInput struct {
	TenantID   string
	UnitID     string
	FiscalYear int
	Rows       []StatementLine
}

// StatementLine is one rendered row.
type StatementLine struct {
	Date        time.Time
	Description string
	Amount      int64
	Balance     int64
}

// ImportFileStore holds the JSON bundles an import run reads from and the
// archives a purge or export can write to.
type ImportFileStore interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) error
	Get(ctx context.Context, objectPath string) ([]byte, error)
	Delete(ctx context.Context, objectPath string) error
}
