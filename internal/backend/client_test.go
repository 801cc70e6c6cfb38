package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetTemplateDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/templates/tmpl-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "tmpl-1",
			"required_distances_km": [1, 2, 3],
			"full_distance_total_km": 6,
			"half_distance_total_km": 3,
			"start_date": "2025-12-01",
			"end_date": "2025-12-03",
			"days": 3
		}`))
	}))
	defer srv.Close()

	tmpl, err := NewClient(srv.URL, "key").GetTemplate(context.Background(), "tmpl-1")
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Days != 3 || len(tmpl.RequiredDistancesKm) != 3 || tmpl.StartDate != "2025-12-01" {
		t.Fatalf("unexpected template %+v", tmpl)
	}
}

func TestMissingRecordIsErrNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").GetInstance(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveInstanceEmptyListIsErrNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("userId") != "u1" || q.Get("status") != "active" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").ActiveInstance(context.Background(), "u1", "tmpl-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("an empty result set is not-found, got %v", err)
	}
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").GetInstance(context.Background(), "i1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("a 500 must not look like a missing record, got %v", err)
	}
}
