package services

import (
	"context"
	"errors"
	"testing"

	"calendrunAPI/internal/types/challenge"
	"calendrunAPI/internal/types/run"
)

func runServiceFixture() (*fakeBackend, *fakeEmitter, *RunService) {
	fb := newFakeBackend()
	fb.templates["tmpl-4d"] = fourDayTemplate()
	fb.instances["inst-1"] = &challenge.Instance{
		ID: "inst-1", TemplateID: "tmpl-4d", UserID: "user-1",
		Variant: "full", Status: challenge.StatusActive,
	}
	emitter := &fakeEmitter{backend: fb}
	return fb, emitter, NewRunService(fb, emitter)
}

func TestLogRunReturnsRecomputedView(t *testing.T) {
	_, emitter, svc := runServiceFixture()

	result, err := svc.Log(context.Background(), "user-1", "inst-1", &run.LogRequest{
		RunDate:    "2025-12-03",
		DistanceKm: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Run.Status != run.StatusCompleted {
		t.Errorf("run status = %s", result.Run.Status)
	}
	if got := result.View.RemainingDistances; len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 4 {
		t.Fatalf("remaining = %v, want [1 2 4]", got)
	}
	if len(emitter.events) != 1 || emitter.events[0].eventType != EventRunLogged {
		t.Fatalf("expected one run.logged event, got %v", emitter.events)
	}
}

func TestLogRunRejectsDuplicateDate(t *testing.T) {
	fb, _, svc := runServiceFixture()
	fb.runs["inst-1"] = []*run.Performance{
		completedRun("inst-1", "2025-12-03", 3),
	}

	_, err := svc.Log(context.Background(), "user-1", "inst-1", &run.LogRequest{
		RunDate:    "2025-12-03",
		DistanceKm: 4,
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for duplicate date, got %v", err)
	}
}

func TestLogRunAllowsDateOfDeletedRun(t *testing.T) {
	fb, _, svc := runServiceFixture()
	deleted := completedRun("inst-1", "2025-12-03", 3)
	deleted.Status = run.StatusDeleted
	fb.runs["inst-1"] = []*run.Performance{deleted}

	if _, err := svc.Log(context.Background(), "user-1", "inst-1", &run.LogRequest{
		RunDate:    "2025-12-03",
		DistanceKm: 3,
	}); err != nil {
		t.Fatalf("a deleted run must not block the date: %v", err)
	}
}

func TestLogRunValidatesDistance(t *testing.T) {
	_, _, svc := runServiceFixture()

	cases := []struct {
		name string
		req  *run.LogRequest
	}{
		{"non-positive", &run.LogRequest{RunDate: "2025-12-03", DistanceKm: 0}},
		{"below planned minimum", &run.LogRequest{RunDate: "2025-12-03", DistanceKm: 2.5}},
		{"outside window", &run.LogRequest{RunDate: "2026-01-10", DistanceKm: 5}},
	}

	for _, tc := range cases {
		_, err := svc.Log(context.Background(), "user-1", "inst-1", tc.req)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
}

func TestLogSkipTakesNoDistance(t *testing.T) {
	_, _, svc := runServiceFixture()

	result, err := svc.Log(context.Background(), "user-1", "inst-1", &run.LogRequest{
		RunDate: "2025-12-02",
		Skipped: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Run.Status != run.StatusSkipped {
		t.Errorf("run status = %s, want skipped", result.Run.Status)
	}
	if result.View.TotalCompletedKm != 0 {
		t.Errorf("a skip adds no distance, total = %v", result.View.TotalCompletedKm)
	}
}

func TestDeleteRunRevertsDayAndPool(t *testing.T) {
	fb, emitter, svc := runServiceFixture()
	fb.runs["inst-1"] = []*run.Performance{
		completedRun("inst-1", "2025-12-03", 3),
	}

	result, err := svc.Delete(context.Background(), "user-1", "inst-1", "run-2025-12-03")
	if err != nil {
		t.Fatal(err)
	}

	if result.View.Days[2].Status != run.StatusPlanned {
		t.Errorf("day 3 should revert to planned, got %s", result.View.Days[2].Status)
	}
	if len(result.View.RemainingDistances) != 4 {
		t.Errorf("pool should be whole again: %v", result.View.RemainingDistances)
	}
	if len(emitter.events) != 1 || emitter.events[0].eventType != EventRunDeleted {
		t.Fatalf("expected one run.deleted event, got %v", emitter.events)
	}
}

func TestUpdateRunValidatesNewDistance(t *testing.T) {
	fb, _, svc := runServiceFixture()
	fb.runs["inst-1"] = []*run.Performance{
		completedRun("inst-1", "2025-12-04", 4),
	}

	tooShort := 3.0
	_, err := svc.Update(context.Background(), "user-1", "inst-1", "run-2025-12-04", &run.UpdateRequest{
		DistanceKm: &tooShort,
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// The backend is the system of record and can hand back runs dated outside
// the template window. Editing one must not trip the per-day minimum check
// (there is no day), and must certainly not crash.
func TestUpdateRunOutsideWindow(t *testing.T) {
	fb, _, svc := runServiceFixture()
	fb.runs["inst-1"] = []*run.Performance{
		completedRun("inst-1", "2026-02-01", 5),
	}

	shorter := 2.0
	result, err := svc.Update(context.Background(), "user-1", "inst-1", "run-2026-02-01", &run.UpdateRequest{
		DistanceKm: &shorter,
	})
	if err != nil {
		t.Fatalf("editing an out-of-window run failed: %v", err)
	}
	if result.Run.DistanceKm != 2 {
		t.Errorf("distance = %v, want 2", result.Run.DistanceKm)
	}

	zero := 0.0
	_, err = svc.Update(context.Background(), "user-1", "inst-1", "run-2026-02-01", &run.UpdateRequest{
		DistanceKm: &zero,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("a non-positive distance must still be rejected, got %v", err)
	}
}

func TestMutationsFailClosedWhenIngestionIsDown(t *testing.T) {
	_, emitter, svc := runServiceFixture()
	emitter.fail = true

	_, err := svc.Log(context.Background(), "user-1", "inst-1", &run.LogRequest{
		RunDate:    "2025-12-03",
		DistanceKm: 3,
	})
	if !errors.Is(err, ErrEventWrite) {
		t.Fatalf("expected ErrEventWrite, got %v", err)
	}
}
