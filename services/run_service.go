package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"calendrunAPI/internal/backend"
	"calendrunAPI/internal/types/calendar"
	"calendrunAPI/internal/types/run"
	"calendrunAPI/internal/types/template"
	"calendrunAPI/utils"
)

type RunService struct {
	backend Backend
	events  EventEmitter
}

func NewRunService(b Backend, e EventEmitter) *RunService {
	return &RunService{backend: b, events: e}
}

// RunResult is what every run mutation returns: the accepted run plus the
// fully recomputed view. Clients replace their state with this wholesale
// instead of patching the pool incrementally.
type RunResult struct {
	Run  *run.Performance        `json:"run"`
	View *calendar.ChallengeView `json:"view"`
}

// Log records a run (or a skip) for one calendar day.
func (s *RunService) Log(ctx context.Context, userID, instanceID string, req *run.LogRequest) (*RunResult, error) {
	inst, tmpl, err := loadOwnedInstance(ctx, s.backend, userID, instanceID)
	if err != nil {
		return nil, err
	}
	runs, err := s.backend.RunsForInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	idx := dayIndexFor(tmpl, req.RunDate)
	if idx < 0 {
		return nil, validationErrorf("date %s is outside the challenge window %s..%s", req.RunDate, tmpl.StartDate, tmpl.EndDate)
	}
	for _, r := range runs {
		if r.Status != run.StatusDeleted && r.RunDate == req.RunDate {
			return nil, validationErrorf("a run already exists for %s", req.RunDate)
		}
	}

	status := run.StatusCompleted
	if req.Skipped {
		status = run.StatusSkipped
	} else {
		if err := s.checkDistance(tmpl, inst.Variant, idx, req.DistanceKm); err != nil {
			return nil, err
		}
	}

	newRun := &run.Performance{
		ID:          uuid.New().String(),
		InstanceID:  instanceID,
		UserID:      userID,
		RunDate:     req.RunDate,
		DistanceKm:  req.DistanceKm,
		TimeMinutes: req.TimeMinutes,
		Notes:       req.Notes,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.events.EmitEvent(ctx, FlowRun, EventRunLogged, newRun); err != nil {
		return nil, fmt.Errorf("%w: run: %v", ErrEventWrite, err)
	}

	return s.result(tmpl, inst.Variant, inst.ID, append(runs, newRun), newRun)
}

// Update edits an existing run's distance, time or notes.
func (s *RunService) Update(ctx context.Context, userID, instanceID, runID string, req *run.UpdateRequest) (*RunResult, error) {
	inst, tmpl, err := loadOwnedInstance(ctx, s.backend, userID, instanceID)
	if err != nil {
		return nil, err
	}
	runs, err := s.backend.RunsForInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	target := findRun(runs, runID)
	if target == nil {
		return nil, backend.ErrNotFound
	}

	updated := *target
	if req.DistanceKm != nil {
		if target.Status == run.StatusCompleted {
			idx := dayIndexFor(tmpl, target.RunDate)
			if err := s.checkDistance(tmpl, inst.Variant, idx, *req.DistanceKm); err != nil {
				return nil, err
			}
		}
		updated.DistanceKm = *req.DistanceKm
	}
	if req.TimeMinutes != nil {
		updated.TimeMinutes = req.TimeMinutes
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}

	if err := s.events.EmitEvent(ctx, FlowRun, EventRunUpdated, &updated); err != nil {
		return nil, fmt.Errorf("%w: run update: %v", ErrEventWrite, err)
	}

	*target = updated
	return s.result(tmpl, inst.Variant, inst.ID, runs, target)
}

// Delete soft-deletes a run. The day reverts to planned and its pool entry
// comes back on the rebuild.
func (s *RunService) Delete(ctx context.Context, userID, instanceID, runID string) (*RunResult, error) {
	inst, tmpl, err := loadOwnedInstance(ctx, s.backend, userID, instanceID)
	if err != nil {
		return nil, err
	}
	runs, err := s.backend.RunsForInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	target := findRun(runs, runID)
	if target == nil {
		return nil, backend.ErrNotFound
	}

	if err := s.events.EmitEvent(ctx, FlowRun, EventRunDeleted, map[string]any{
		"run_id":      target.ID,
		"instance_id": instanceID,
		"user_id":     userID,
	}); err != nil {
		return nil, fmt.Errorf("%w: run deletion: %v", ErrEventWrite, err)
	}

	target.Status = run.StatusDeleted
	return s.result(tmpl, inst.Variant, inst.ID, runs, target)
}

func (s *RunService) checkDistance(tmpl *template.ChallengeTemplate, variant string, dayIndex int, distanceKm float64) error {
	if distanceKm <= 0 {
		return validationErrorf("distance must be positive, got %.2f", distanceKm)
	}
	// The backend can hold runs dated outside the template window (Log
	// rejects them, but the system of record is not ours). Such a run has
	// no planned day to hold it to; only the positivity check applies.
	if dayIndex < 0 {
		return nil
	}
	multiplier, err := VariantToMultiplier(variant)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}
	planned := Quantize(tmpl.RequiredDistancesKm[dayIndex] * multiplier)
	if distanceKm < planned {
		return validationErrorf("distance %.2f km is below the day's planned %.2f km", distanceKm, planned)
	}
	return nil
}

func (s *RunService) result(tmpl *template.ChallengeTemplate, variant, instanceID string, runs []*run.Performance, changed *run.Performance) (*RunResult, error) {
	view, err := Reconcile(tmpl, variant, runs, utils.Today())
	if err != nil {
		return nil, err
	}
	view.InstanceID = instanceID
	return &RunResult{Run: changed, View: view}, nil
}

func findRun(runs []*run.Performance, runID string) *run.Performance {
	for _, r := range runs {
		if r.ID == runID && r.Status != run.StatusDeleted {
			return r
		}
	}
	return nil
}
