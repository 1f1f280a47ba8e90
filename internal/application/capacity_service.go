package application

import (
	"context"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/capacity"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// CapacityService computes division capacity pictures and forecasts over
// data read from the store. Forecasts are advisory: missing data yields
// zeroed metrics, never an error surfaced as a failure.
type CapacityService struct {
	store domain.Store
}

func NewCapacityService(store domain.Store) *CapacityService {
	return &CapacityService{store: store}
}

// DivisionCapacity computes one capacity window.
func (s *CapacityService) DivisionCapacity(ctx context.Context, division schedule.Division, start, end time.Time) (capacity.DivisionCapacity, error) {
	if !division.IsValid() {
		return capacity.DivisionCapacity{}, schedule.ErrInvalidDivision
	}
	if end.Before(start) {
		return capacity.DivisionCapacity{}, schedule.ErrInvalidDateRange
	}
	in, err := gatherCapacityInputs(ctx, s.store, start, end)
	if err != nil {
		return capacity.DivisionCapacity{}, err
	}
	return capacity.Compute(start, end, division, in), nil
}

// Forecast computes one capacity window per calendar month.
func (s *CapacityService) Forecast(ctx context.Context, division schedule.Division, start, end time.Time) ([]capacity.DivisionCapacity, error) {
	if !division.IsValid() {
		return nil, schedule.ErrInvalidDivision
	}
	if end.Before(start) {
		return nil, schedule.ErrInvalidDateRange
	}
	in, err := gatherCapacityInputs(ctx, s.store, start, end)
	if err != nil {
		return nil, err
	}
	return capacity.Forecast(start, end, division, in), nil
}

// CriticalPeriods returns forecast windows at or above the threshold.
func (s *CapacityService) CriticalPeriods(ctx context.Context, division schedule.Division, start, end time.Time, thresholdPct float64) ([]capacity.DivisionCapacity, error) {
	if !division.IsValid() {
		return nil, schedule.ErrInvalidDivision
	}
	in, err := gatherCapacityInputs(ctx, s.store, start, end)
	if err != nil {
		return nil, err
	}
	return capacity.CriticalPeriods(start, end, division, thresholdPct, in), nil
}
