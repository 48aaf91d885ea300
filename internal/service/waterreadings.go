package service

import (
	"context"
	"time"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/store"
)

// WaterReadingsService stores one document per (tenant, fiscalYear,
// fiscalMonth) with per-unit meter readings plus the common area (§4.H).
// There is no business logic here beyond a map merge.
type WaterReadingsService struct {
	store store.Store
}

// NewWaterReadingsService wires a WaterReadingsService.
func NewWaterReadingsService(s store.Store) *WaterReadingsService {
	return &WaterReadingsService{store: s}
}

// Get loads the readings document for (fiscalYear, fiscalMonth).
func (w *WaterReadingsService) Get(ctx context.Context, tenantID string, fiscalYear, fiscalMonth int) (domain.WaterReadings, error) {
	data, err := w.store.Get(ctx, waterReadingsPath(tenantID, fiscalYear, fiscalMonth))
	if err != nil {
		if err == store.ErrNotFound {
			return domain.WaterReadings{}, apperr.Wrap(apperr.NotFound, domain.ErrReadingsNotFound, "")
		}
		return domain.WaterReadings{}, apperr.Wrap(apperr.StoreTimeout, err, "read water readings")
	}
	var wr domain.WaterReadings
	if err := store.FromDoc(data, &wr); err != nil {
		return domain.WaterReadings{}, apperr.Wrap(apperr.Internal, err, "unmarshal water readings")
	}
	return wr, nil
}

// Upsert merges readings, car-wash counts, and boat-wash counts into the
// existing document for (fiscalYear, fiscalMonth), creating it if absent.
// Overwrite is allowed by design.
func (w *WaterReadingsService) Upsert(ctx context.Context, tenantID string, fiscalYear, fiscalMonth int, readings, carWashCounts, boatWashCounts map[string]int, commonArea int) (domain.WaterReadings, error) {
	existing, err := w.Get(ctx, tenantID, fiscalYear, fiscalMonth)
	if err != nil && apperr.KindOf(err) != apperr.NotFound {
		return domain.WaterReadings{}, err
	}
	if existing.Readings == nil {
		existing = domain.WaterReadings{
			TenantID:       tenantID,
			FiscalYear:     fiscalYear,
			FiscalMonth:    fiscalMonth,
			Readings:       make(map[string]int),
			CarWashCounts:  make(map[string]int),
			BoatWashCounts: make(map[string]int),
		}
	}
	if existing.CarWashCounts == nil {
		existing.CarWashCounts = make(map[string]int)
	}
	if existing.BoatWashCounts == nil {
		existing.BoatWashCounts = make(map[string]int)
	}
	for unitID, reading := range readings {
		existing.Readings[unitID] = reading
	}
	for unitID, count := range carWashCounts {
		existing.CarWashCounts[unitID] = count
	}
	for unitID, count := range boatWashCounts {
		existing.BoatWashCounts[unitID] = count
	}
	existing.CommonArea = commonArea
	existing.Timestamp = time.Now().UTC()

	doc, err := store.ToDoc(existing)
	if err != nil {
		return domain.WaterReadings{}, apperr.Wrap(apperr.Internal, err, "marshal water readings")
	}
	if err := w.store.Set(ctx, waterReadingsPath(tenantID, fiscalYear, fiscalMonth), doc); err != nil {
		return domain.WaterReadings{}, apperr.Wrap(apperr.StoreTimeout, err, "write water readings")
	}
	return existing, nil
}

// PriorReading returns the last known reading for unitID strictly before
// fiscal month fm of fiscalYear, scanning backward across months (and
// fiscal years, if fm==0) until one is found. Returns 0 if none exists.
func (w *WaterReadingsService) PriorReading(ctx context.Context, tenantID, unitID string, fiscalYear, fm int) (int, error) {
	year, month := fiscalYear, fm-1
	for i := 0; i < 36; i++ {
		if month < 0 {
			year--
			month = 11
		}
		wr, err := w.Get(ctx, tenantID, year, month)
		if err == nil {
			if v, ok := wr.Readings[unitID]; ok {
				return v, nil
			}
		} else if apperr.KindOf(err) != apperr.NotFound {
			return 0, err
		}
		month--
	}
	return 0, nil
}
