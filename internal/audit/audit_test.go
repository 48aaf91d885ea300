package audit

import (
	"context"
	"testing"

	"github.com/sandyland/sams-core/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_Record_Writes(t *testing.T) {
	s := memstore.New()
	l := New(s)

	l.Record(context.Background(), Entry{
		TenantID: "AVII",
		Module:   "transactions",
		Action:   "create",
		DocID:    "2026-07-01_100000_001",
		UserID:   "user-1",
	})

	docs, err := s.ListDocs(context.Background(), "clients/AVII/auditLog")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "transactions", docs[0].Data["module"])
}

func TestLog_RecordFatal_SucceedsOnHealthyStore(t *testing.T) {
	s := memstore.New()
	l := New(s)

	err := l.RecordFatal(context.Background(), Entry{
		TenantID: "AVII",
		Module:   "importpurge",
		Action:   "purge",
	})
	require.NoError(t, err)
}
