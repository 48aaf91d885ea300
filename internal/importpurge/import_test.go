package importpurge

import (
	"context"
	"testing"
	"time"

	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/jobslot"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporter_Run_ClientIDMismatchAborts(t *testing.T) {
	s := memstore.New()
	im := NewImporter(s, audit.New(s), jobslot.NewRegistry())

	bundle := Bundle{Client: ClientFile{ClientID: "OTHER"}}
	_, err := im.Run(context.Background(), "AVII", bundle, "admin-1")
	assert.ErrorIs(t, err, domain.ErrClientIDMismatch)
}

func TestImporter_Run_FullSequenceBuildsCrossReference(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	im := NewImporter(s, audit.New(s), jobslot.NewRegistry())

	bundle := Bundle{
		Client: ClientFile{ClientID: "AVII", DisplayCurrency: "MXN", FiscalYearStartMonth: 1},
		Units:  []UnitFile{{UnitID: "101", ScheduledDuesAmount: 50000}},
		Transactions: []TransactionFile{
			{DocID: "2026-01-15_120000_001", Date: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), Amount: 50000, UnitID: "101", PaySeq: "PS-1"},
		},
		HOADues: []HOADuesFile{
			{
				UnitID: "101", FiscalYear: 2026, ScheduledAmount: 50000,
				Slots: []HOADuesSlotFile{{Month: 1, Amount: 50000, BasePaid: 50000, Paid: true, PaySeq: "PS-1"}},
			},
		},
	}

	meta, err := im.Run(ctx, "AVII", bundle, "admin-1")
	require.NoError(t, err)
	for _, step := range meta.Steps {
		assert.Equal(t, domain.ImportStepDone, step.Status, step.Name)
	}

	data, err := s.Get(ctx, duesPath("AVII", "101", 2026))
	require.NoError(t, err)
	var rec domain.HOADuesRecord
	require.NoError(t, store.FromDoc(data, &rec))
	assert.Equal(t, "2026-01-15_120000_001", rec.Payments[0].TransactionID)
}

func TestImporter_Run_TransactionMissingDocIDHaltsSequence(t *testing.T) {
	s := memstore.New()
	im := NewImporter(s, audit.New(s), jobslot.NewRegistry())

	bundle := Bundle{
		Client:       ClientFile{ClientID: "AVII"},
		Transactions: []TransactionFile{{Amount: 1000}},
		HOADues:      []HOADuesFile{{UnitID: "101", FiscalYear: 2026}},
	}

	meta, err := im.Run(context.Background(), "AVII", bundle, "admin-1")
	require.Error(t, err)
	// Transactions step failed; HOADues (the step after it) must never run.
	var txStatus, duesStatus domain.ImportStepStatus
	for _, step := range meta.Steps {
		if step.Name == "Transactions" {
			txStatus = step.Status
		}
		if step.Name == "HOADues" {
			duesStatus = step.Status
		}
	}
	assert.Equal(t, domain.ImportStepFailed, txStatus)
	assert.Equal(t, domain.ImportStepPending, duesStatus)
}
