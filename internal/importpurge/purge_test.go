package importpurge

import (
	"context"
	"testing"

	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/jobslot"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenantTree(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	doc, err := store.ToDoc(map[string]interface{}{"unitNumber": "101"})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "clients/AVII/units/101", doc))
	require.NoError(t, s.Set(ctx, "clients/AVII/units/101/dues/2026", doc))
	require.NoError(t, s.Set(ctx, "clients/AVII/transactions/2026-01-01_090000_001", doc))
	require.NoError(t, s.Set(ctx, "clients/AVII/auditLog/entry-1", doc))
}

func TestPurger_Purge_DryRunDoesNotMutate(t *testing.T) {
	s := memstore.New()
	seedTenantTree(t, s)
	p := NewPurger(s, audit.New(s), jobslot.NewRegistry())

	report, err := p.Purge(context.Background(), "AVII", nil, false, "admin-1")
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Positive(t, report.DocsExamined)

	_, err = s.Get(context.Background(), "clients/AVII/units/101")
	assert.NoError(t, err, "dry run must not delete anything")
}

func TestPurger_Purge_ExecuteDeletesExceptExcluded(t *testing.T) {
	s := memstore.New()
	seedTenantTree(t, s)
	p := NewPurger(s, audit.New(s), jobslot.NewRegistry())

	_, err := p.Purge(context.Background(), "AVII", []string{"auditLog"}, true, "admin-1")
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "clients/AVII/units/101")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(context.Background(), "clients/AVII/units/101/dues/2026")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Get(context.Background(), "clients/AVII/auditLog/entry-1")
	assert.NoError(t, err, "excluded collection must survive")
}

func TestPurger_Purge_GhostDocumentDetected(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	doc, err := store.ToDoc(map[string]interface{}{"amount": 1})
	require.NoError(t, err)
	// "clients/AVII/units/101" is never Set directly: only its dues
	// subcollection exists, making it a ghost document.
	require.NoError(t, s.Set(ctx, "clients/AVII/units/101/dues/2026", doc))

	p := NewPurger(s, audit.New(s), jobslot.NewRegistry())
	report, err := p.Purge(ctx, "AVII", nil, false, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.GhostsFound)
}

func TestPurger_Purge_RejectsConcurrentRun(t *testing.T) {
	s := memstore.New()
	jobs := jobslot.NewRegistry()
	jobs.TryAcquire("AVII", "import")

	p := NewPurger(s, audit.New(s), jobs)
	_, err := p.Purge(context.Background(), "AVII", nil, false, "admin-1")
	assert.Error(t, err)
}
