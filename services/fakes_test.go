package services

import (
	"context"
	"fmt"
	"time"

	"calendrunAPI/internal/backend"
	"calendrunAPI/internal/types/challenge"
	"calendrunAPI/internal/types/club"
	"calendrunAPI/internal/types/run"
	"calendrunAPI/internal/types/template"
)

// fakeBackend is an in-memory stand-in for the read API.
type fakeBackend struct {
	templates map[string]*template.ChallengeTemplate
	current   *template.ChallengeTemplate
	instances map[string]*challenge.Instance
	summaries []*challenge.InstanceSummary
	runs      map[string][]*run.Performance
	members   map[string][]*club.Member
	clubs     map[string]*club.Club
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		templates: make(map[string]*template.ChallengeTemplate),
		instances: make(map[string]*challenge.Instance),
		runs:      make(map[string][]*run.Performance),
		members:   make(map[string][]*club.Member),
		clubs:     make(map[string]*club.Club),
	}
}

func (f *fakeBackend) GetTemplate(ctx context.Context, id string) (*template.ChallengeTemplate, error) {
	if t, ok := f.templates[id]; ok {
		return t, nil
	}
	return nil, backend.ErrNotFound
}

func (f *fakeBackend) TemplateForMonth(ctx context.Context, year int, month time.Month) (*template.ChallengeTemplate, error) {
	if f.current == nil {
		return nil, backend.ErrNotFound
	}
	return f.current, nil
}

func (f *fakeBackend) GetInstance(ctx context.Context, id string) (*challenge.Instance, error) {
	if inst, ok := f.instances[id]; ok {
		return inst, nil
	}
	return nil, backend.ErrNotFound
}

func (f *fakeBackend) ActiveInstance(ctx context.Context, userID, templateID string) (*challenge.Instance, error) {
	for _, inst := range f.instances {
		if inst.UserID == userID && inst.TemplateID == templateID && inst.Status == challenge.StatusActive {
			return inst, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (f *fakeBackend) InstancesForTemplate(ctx context.Context, templateID string) ([]*challenge.InstanceSummary, error) {
	return f.summaries, nil
}

func (f *fakeBackend) RunsForInstance(ctx context.Context, instanceID string) ([]*run.Performance, error) {
	return f.runs[instanceID], nil
}

func (f *fakeBackend) ClubMembers(ctx context.Context, clubID string) ([]*club.Member, error) {
	if m, ok := f.members[clubID]; ok {
		return m, nil
	}
	return nil, backend.ErrNotFound
}

func (f *fakeBackend) ClubByInviteToken(ctx context.Context, token string) (*club.Club, error) {
	if c, ok := f.clubs[token]; ok {
		return c, nil
	}
	return nil, backend.ErrNotFound
}

type emittedEvent struct {
	flowType  string
	eventType string
	payload   any
}

// fakeEmitter records events and, like the real materializer eventually
// would, folds instance events straight into the fake backend so the join
// poll can observe them.
type fakeEmitter struct {
	backend *fakeBackend
	events  []emittedEvent
	fail    bool
}

func (f *fakeEmitter) EmitEvent(ctx context.Context, flowType, eventType string, payload any) error {
	if f.fail {
		return fmt.Errorf("ingestion unavailable")
	}
	f.events = append(f.events, emittedEvent{flowType, eventType, payload})

	if eventType == EventChallengeJoined && f.backend != nil {
		if inst, ok := payload.(*challenge.Instance); ok {
			f.backend.instances[inst.ID] = inst
		}
	}
	return nil
}

// threeDayTemplate is the switch-validation fixture: 10/20/30 km over three
// days starting Dec 1.
func threeDayTemplate() *template.ChallengeTemplate {
	return &template.ChallengeTemplate{
		ID:                  "tmpl-3d",
		Name:                "Three Day Test",
		RequiredDistancesKm: []float64{10, 20, 30},
		FullDistanceTotalKm: 60,
		HalfDistanceTotalKm: 30,
		StartDate:           "2025-12-01",
		EndDate:             "2025-12-03",
		Days:                3,
	}
}

func fourDayTemplate() *template.ChallengeTemplate {
	return &template.ChallengeTemplate{
		ID:                  "tmpl-4d",
		Name:                "Four Day Test",
		RequiredDistancesKm: []float64{1, 2, 3, 4},
		FullDistanceTotalKm: 10,
		HalfDistanceTotalKm: 5,
		StartDate:           "2025-12-01",
		EndDate:             "2025-12-04",
		Days:                4,
	}
}

func completedRun(instanceID, date string, km float64) *run.Performance {
	return &run.Performance{
		ID:         "run-" + date,
		InstanceID: instanceID,
		UserID:     "user-1",
		RunDate:    date,
		DistanceKm: km,
		Status:     run.StatusCompleted,
		CreatedAt:  time.Now(),
	}
}
