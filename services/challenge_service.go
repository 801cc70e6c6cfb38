package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"calendrunAPI/internal/backend"
	"calendrunAPI/internal/types/calendar"
	"calendrunAPI/internal/types/challenge"
	"calendrunAPI/internal/types/club"
	"calendrunAPI/internal/types/run"
	"calendrunAPI/internal/types/template"
	"calendrunAPI/utils"
)

// Backend is the read side of the system of record. Implemented by
// internal/backend.Client; faked in tests.
type Backend interface {
	GetTemplate(ctx context.Context, id string) (*template.ChallengeTemplate, error)
	TemplateForMonth(ctx context.Context, year int, month time.Month) (*template.ChallengeTemplate, error)
	GetInstance(ctx context.Context, id string) (*challenge.Instance, error)
	ActiveInstance(ctx context.Context, userID, templateID string) (*challenge.Instance, error)
	InstancesForTemplate(ctx context.Context, templateID string) ([]*challenge.InstanceSummary, error)
	RunsForInstance(ctx context.Context, instanceID string) ([]*run.Performance, error)
	ClubMembers(ctx context.Context, clubID string) ([]*club.Member, error)
	ClubByInviteToken(ctx context.Context, token string) (*club.Club, error)
}

// EventEmitter is the write side: at-least-once event ingestion with no
// read-your-writes guarantee. Implemented by internal/flowcore.Client.
type EventEmitter interface {
	EmitEvent(ctx context.Context, flowType, eventType string, payload any) error
}

const (
	FlowChallenge = "challenge.1"
	FlowRun       = "run.1"

	EventChallengeJoined  = "challenge.joined.1"
	EventVariantSwitched  = "challenge.variant-switched.1"
	EventStatusUpdated    = "challenge.status-updated.1"
	EventRunLogged        = "run.logged.1"
	EventRunUpdated       = "run.updated.1"
	EventRunDeleted       = "run.deleted.1"
)

const (
	joinPollAttempts = 30
	joinPollInterval = time.Second
)

type ChallengeService struct {
	backend Backend
	events  EventEmitter
}

func NewChallengeService(b Backend, e EventEmitter) *ChallengeService {
	return &ChallengeService{backend: b, events: e}
}

// loadOwnedInstance fetches an instance and its template, enforcing
// ownership before anything else happens.
func loadOwnedInstance(ctx context.Context, b Backend, userID, instanceID string) (*challenge.Instance, *template.ChallengeTemplate, error) {
	inst, err := b.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, nil, err
	}
	if inst.UserID != userID {
		return nil, nil, ErrForbidden
	}
	tmpl, err := b.GetTemplate(ctx, inst.TemplateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load template %s: %w", inst.TemplateID, err)
	}
	return inst, tmpl, nil
}

// GetView derives the full calendar + pool view for one instance.
func (s *ChallengeService) GetView(ctx context.Context, userID, instanceID string) (*calendar.ChallengeView, error) {
	inst, tmpl, err := loadOwnedInstance(ctx, s.backend, userID, instanceID)
	if err != nil {
		return nil, err
	}
	runs, err := s.backend.RunsForInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	view, err := Reconcile(tmpl, inst.Variant, runs, utils.Today())
	if err != nil {
		return nil, err
	}
	view.InstanceID = inst.ID
	return view, nil
}

// CurrentTemplate returns this month's template plus its valid variant set.
func (s *ChallengeService) CurrentTemplate(ctx context.Context) (*template.ChallengeTemplate, []string, error) {
	now := time.Now().UTC()
	tmpl, err := s.backend.TemplateForMonth(ctx, now.Year(), now.Month())
	if err != nil {
		return nil, nil, err
	}
	return tmpl, VariantsForDays(tmpl.Days), nil
}

// Join enrolls the user in a template. The write goes through event
// ingestion, so after emitting we poll the read API until the instance
// becomes visible; the backend gives no read-your-writes guarantee.
func (s *ChallengeService) Join(ctx context.Context, userID string, req *challenge.JoinRequest) (*challenge.Instance, error) {
	tmpl, err := s.backend.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !IsValidVariant(req.Variant, tmpl.Days) {
		return nil, validationErrorf("variant %q is not valid for a %d-day challenge", req.Variant, tmpl.Days)
	}

	existing, err := s.backend.ActiveInstance(ctx, userID, req.TemplateID)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing != nil {
		return nil, validationErrorf("already enrolled in challenge %s", req.TemplateID)
	}

	inst := &challenge.Instance{
		ID:         uuid.New().String(),
		TemplateID: req.TemplateID,
		UserID:     userID,
		Variant:    req.Variant,
		Status:     challenge.StatusActive,
		JoinedAt:   time.Now().UTC(),
	}

	if err := s.events.EmitEvent(ctx, FlowChallenge, EventChallengeJoined, inst); err != nil {
		return nil, fmt.Errorf("%w: enrollment: %v", ErrEventWrite, err)
	}

	return s.awaitInstance(ctx, inst.ID)
}

func (s *ChallengeService) awaitInstance(ctx context.Context, instanceID string) (*challenge.Instance, error) {
	for attempt := 0; attempt < joinPollAttempts; attempt++ {
		inst, err := s.backend.GetInstance(ctx, instanceID)
		if err == nil {
			return inst, nil
		}
		if !errors.Is(err, backend.ErrNotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(joinPollInterval):
		}
	}
	return nil, fmt.Errorf("instance %s not visible after %d attempts", instanceID, joinPollAttempts)
}

// ValidateVariantSwitch recomputes every completed run's requirement under
// the proposed multiplier and collects all violations. Switching down never
// invalidates anything, so validation only runs when the multiplier grows.
func ValidateVariantSwitch(tmpl *template.ChallengeTemplate, runs []*run.Performance, currentVariant, newVariant string) ([]challenge.InvalidRun, error) {
	curM, err := VariantToMultiplier(currentVariant)
	if err != nil {
		return nil, err
	}
	newM, err := VariantToMultiplier(newVariant)
	if err != nil {
		return nil, err
	}
	if newM <= curM {
		return nil, nil
	}

	var invalid []challenge.InvalidRun
	for _, r := range runs {
		if r.Status != run.StatusCompleted {
			continue
		}
		idx := dayIndexFor(tmpl, r.RunDate)
		if idx < 0 {
			continue
		}
		required := Quantize(tmpl.RequiredDistancesKm[idx] * newM)
		if r.DistanceKm < required {
			invalid = append(invalid, challenge.InvalidRun{
				DayNumber:        idx + 1,
				Date:             r.RunDate,
				ActualDistance:   r.DistanceKm,
				RequiredDistance: required,
			})
		}
	}
	return invalid, nil
}

// Update applies a variant switch and/or a status transition, then returns
// the view recomputed under the new state. Callers apply the returned view
// unconditionally; there is no optimistic diffing to reconcile against.
func (s *ChallengeService) Update(ctx context.Context, userID, instanceID string, req *challenge.UpdateRequest) (*calendar.ChallengeView, error) {
	inst, tmpl, err := loadOwnedInstance(ctx, s.backend, userID, instanceID)
	if err != nil {
		return nil, err
	}
	runs, err := s.backend.RunsForInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	variant := inst.Variant
	if req.Variant != "" && req.Variant != inst.Variant {
		if !IsValidVariant(req.Variant, tmpl.Days) {
			return nil, validationErrorf("variant %q is not valid for a %d-day challenge", req.Variant, tmpl.Days)
		}

		invalidRuns, err := ValidateVariantSwitch(tmpl, runs, inst.Variant, req.Variant)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		if len(invalidRuns) > 0 {
			// Rejected atomically: nothing was emitted, nothing applied.
			return nil, &SwitchRejectedError{InvalidRuns: invalidRuns}
		}

		if err := s.events.EmitEvent(ctx, FlowChallenge, EventVariantSwitched, map[string]any{
			"instance_id": inst.ID,
			"user_id":     inst.UserID,
			"from":        inst.Variant,
			"to":          req.Variant,
		}); err != nil {
			return nil, fmt.Errorf("%w: variant switch: %v", ErrEventWrite, err)
		}
		variant = req.Variant
	}

	if req.Status != "" && req.Status != string(inst.Status) {
		if req.Status != string(challenge.StatusActive) && req.Status != string(challenge.StatusCompleted) {
			return nil, validationErrorf("unknown status %q", req.Status)
		}
		// completed is terminal
		if inst.Status == challenge.StatusCompleted {
			return nil, validationErrorf("a completed challenge cannot go back to %s", req.Status)
		}
		if err := s.events.EmitEvent(ctx, FlowChallenge, EventStatusUpdated, map[string]any{
			"instance_id": inst.ID,
			"user_id":     inst.UserID,
			"status":      req.Status,
		}); err != nil {
			return nil, fmt.Errorf("%w: status update: %v", ErrEventWrite, err)
		}
		log.Printf("instance %s status %s -> %s", inst.ID, inst.Status, req.Status)
	}

	view, err := Reconcile(tmpl, variant, runs, utils.Today())
	if err != nil {
		return nil, err
	}
	view.InstanceID = inst.ID
	return view, nil
}
