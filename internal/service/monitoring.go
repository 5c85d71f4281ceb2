package service

import (
	"context"

	"visiverse/internal/models"
	"visiverse/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

// GetScanState returns the persisted scan state, or an idle baseline if the
// library was never scanned.
func (s *MonitoringService) GetScanState(ctx context.Context) (models.ScanState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.ScanState{}, err
	}
	if state.ID == 0 {
		return baselineState(), nil
	}
	if !state.LastScanAt.IsZero() {
		state.LastScanAt = state.LastScanAt.UTC()
	}
	return state, nil
}

// baselineState is the snapshot reported before the first scan.
func baselineState() models.ScanState {
	return models.ScanState{ID: 1} // DB schema enforces single-row state with id=1
}
