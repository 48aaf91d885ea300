package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTenantLister struct {
	ids []string
}

func (f *fakeTenantLister) ListTenantIDs(ctx context.Context) ([]string, error) {
	return f.ids, nil
}

func TestMonthlyScheduler_SkipsNonCronDay(t *testing.T) {
	var mu sync.Mutex
	var calls int

	s := New(&fakeTenantLister{ids: []string{"AVII"}}, func(ctx context.Context, tenantID string) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}, 11, time.Hour)
	s.now = func() time.Time { return time.Date(2026, 7, 10, 3, 0, 0, 0, time.UTC) }

	s.tickOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestMonthlyScheduler_RunsOnCronDayOncePerTenantPerDay(t *testing.T) {
	var mu sync.Mutex
	var calls int

	s := New(&fakeTenantLister{ids: []string{"AVII", "MTC"}}, func(ctx context.Context, tenantID string) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}, 11, time.Hour)
	s.now = func() time.Time { return time.Date(2026, 7, 11, 3, 0, 0, 0, time.UTC) }

	s.tickOnce(context.Background())
	s.tickOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
