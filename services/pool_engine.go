package services

import (
	"math"
	"sort"

	"calendrunAPI/internal/types/calendar"
	"calendrunAPI/internal/types/run"
	"calendrunAPI/internal/types/template"
	"calendrunAPI/utils"
)

// Quantize rounds a distance to 2 decimals. Pool entries are map keys, so
// every distance that enters the pool or is compared against it must go
// through this, or float drift splits one requirement into two keys.
func Quantize(km float64) float64 {
	return math.Round(km*100) / 100
}

// BuildPool expands the template under the given multiplier into the
// multiset of scaled per-day requirements, as a frequency map keyed by
// quantized distance.
func BuildPool(tmpl *template.ChallengeTemplate, multiplier float64) map[float64]int {
	pool := make(map[float64]int, len(tmpl.RequiredDistancesKm))
	for _, d := range tmpl.RequiredDistancesKm {
		pool[Quantize(d*multiplier)]++
	}
	return pool
}

// Consume removes the largest pool entry that the given distance still
// satisfies (value <= distance, count > 0) and returns it. A run that
// satisfies nothing consumes nothing; it still counts toward the total.
func Consume(pool map[float64]int, distanceKm float64) (float64, bool) {
	d := Quantize(distanceKm)
	best := -1.0
	for v, count := range pool {
		if count > 0 && v <= d && v > best {
			best = v
		}
	}
	if best < 0 {
		return 0, false
	}
	pool[best]--
	if pool[best] == 0 {
		delete(pool, best)
	}
	return best, true
}

// Reconcile derives the full challenge view from template + variant + runs.
// This is the single engine behind the challenge page, every run mutation
// and the leaderboard aggregation; the pool is always rebuilt from scratch
// because every entry's value depends on the multiplier.
//
// Runs with status "deleted" are treated as absent: the day reverts to
// planned and its requirement returns to the pool. "today" is a date string
// in the same calendar the run dates use (UTC on the server).
//
// A completed run dated outside the template window still counts toward
// TotalCompletedKm and still draws from the pool; kilometers ran are
// kilometers ran. Only the per-day statuses and the variant-switch
// validator ignore such rows, since they have no day to attach to.
func Reconcile(tmpl *template.ChallengeTemplate, variant string, runs []*run.Performance, today string) (*calendar.ChallengeView, error) {
	multiplier, err := VariantToMultiplier(variant)
	if err != nil {
		return nil, err
	}

	runsByDate := make(map[string]*run.Performance, len(runs))
	for _, r := range runs {
		if r.Status == run.StatusDeleted {
			continue
		}
		runsByDate[r.RunDate] = r
	}

	days := make([]*calendar.Day, 0, tmpl.Days)
	for i := 0; i < tmpl.Days; i++ {
		date, err := tmpl.DayDate(i)
		if err != nil {
			return nil, err
		}

		day := &calendar.Day{
			DayNumber:         i + 1,
			Date:              date,
			PlannedDistanceKm: Quantize(tmpl.RequiredDistancesKm[i] * multiplier),
			Status:            run.StatusPlanned,
			IsToday:           date == today,
		}
		if r, ok := runsByDate[date]; ok {
			day.Status = r.Status
			day.ActualDistanceKm = r.DistanceKm
		}
		days = append(days, day)
	}

	pool := BuildPool(tmpl, multiplier)
	var totalCompleted float64
	doorsOpened := 0
	for _, r := range runs {
		if r.Status != run.StatusCompleted {
			continue
		}
		totalCompleted += r.DistanceKm
		Consume(pool, r.DistanceKm)
	}
	for _, r := range runsByDate {
		if r.Status == run.StatusCompleted {
			doorsOpened++
		}
	}

	view := &calendar.ChallengeView{
		Variant:            variant,
		Days:               days,
		TotalCompletedKm:   Quantize(totalCompleted),
		TargetDistanceKm:   Quantize(tmpl.FullDistanceTotalKm * multiplier),
		DoorsOpened:        doorsOpened,
		RemainingDistances: flattenPool(pool),
	}

	// The suggestion is today's planned distance, not a pool lookup. The
	// two can disagree when a long run consumed today's entry out of
	// order; day status wins.
	for _, day := range days {
		if day.IsToday && day.Status == run.StatusPlanned {
			suggested := day.PlannedDistanceKm
			view.TodaySuggestedKm = &suggested
			break
		}
	}

	return view, nil
}

func flattenPool(pool map[float64]int) []float64 {
	values := make([]float64, 0, len(pool))
	for v := range pool {
		values = append(values, v)
	}
	sort.Float64s(values)

	flat := make([]float64, 0, len(values))
	for _, v := range values {
		for i := 0; i < pool[v]; i++ {
			flat = append(flat, v)
		}
	}
	return flat
}

// dayIndexFor maps a run date onto the template's zero-based day index, or
// -1 when the date falls outside the challenge window.
func dayIndexFor(tmpl *template.ChallengeTemplate, runDate string) int {
	idx, err := utils.DaysBetween(tmpl.StartDate, runDate)
	if err != nil || idx < 0 || idx >= tmpl.Days {
		return -1
	}
	return idx
}
