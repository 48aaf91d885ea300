package xref

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTable_PutGet(t *testing.T) {
	tbl := New()
	tbl.Put("seq-1", Entry{TransactionID: "2026-07-01_100000_001", UnitID: "101", Amount: 460000, Date: time.Now()})

	e, ok := tbl.Get("seq-1")
	assert.True(t, ok)
	assert.Equal(t, "101", e.UnitID)

	_, ok = tbl.Get("missing")
	assert.False(t, ok)
}

func TestTable_Unresolved(t *testing.T) {
	tbl := New()
	tbl.Put("seq-1", Entry{TransactionID: "tx-1"})

	missing := tbl.Unresolved([]string{"seq-1", "seq-2", "seq-3"})
	assert.Equal(t, []string{"seq-2", "seq-3"}, missing)
}

func TestTable_Len(t *testing.T) {
	tbl := New()
	assert.Equal(t, 0, tbl.Len())
	tbl.Put("seq-1", Entry{})
	assert.Equal(t, 1, tbl.Len())
}
