// Package scheduler drives the monthly penalty-recalculation job with a
// stdlib time.Ticker. No cron or job-scheduling library appears anywhere
// in the reference corpus, so this stays on the standard library rather
// than reaching for an external scheduler dependency.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TenantLister supplies the set of tenants the scheduler should visit.
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// PenaltyRecalcFunc runs penalty recalculation for one tenant.
type PenaltyRecalcFunc func(ctx context.Context, tenantID string) error

// MonthlyScheduler fires PenaltyRecalcFunc once per tenant per calendar
// day equal to CronDay, checked on every tick.
type MonthlyScheduler struct {
	tenants TenantLister
	recalc  PenaltyRecalcFunc
	cronDay int
	tick    time.Duration

	mu      sync.Mutex
	lastRun map[string]time.Time

	now func() time.Time
}

// New creates a MonthlyScheduler. tick is the poll interval (an hour in
// production); cronDay is the day-of-month (1-28) penalty recalc should run.
func New(tenants TenantLister, recalc PenaltyRecalcFunc, cronDay int, tick time.Duration) *MonthlyScheduler {
	return &MonthlyScheduler{
		tenants: tenants,
		recalc:  recalc,
		cronDay: cronDay,
		tick:    tick,
		lastRun: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Run blocks, ticking until ctx is cancelled.
func (s *MonthlyScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

func (s *MonthlyScheduler) tickOnce(ctx context.Context) {
	now := s.now()
	if now.Day() != s.cronDay {
		return
	}

	tenantIDs, err := s.tenants.ListTenantIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: failed to list tenants")
		return
	}

	for _, tenantID := range tenantIDs {
		if s.alreadyRanToday(tenantID, now) {
			continue
		}
		if err := s.recalc(ctx, tenantID); err != nil {
			log.Error().Err(err).Str("tenant_id", tenantID).Msg("scheduler: penalty recalc failed")
			continue
		}
		s.markRan(tenantID, now)
	}
}

func (s *MonthlyScheduler) alreadyRanToday(tenantID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastRun[tenantID]
	if !ok {
		return false
	}
	y1, m1, d1 := last.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (s *MonthlyScheduler) markRan(tenantID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun[tenantID] = now
}
