package services

import (
	"math"
	"testing"
)

func TestVariantToMultiplierAliases(t *testing.T) {
	cases := map[string]float64{
		"full": 1.0,
		"8/8":  1.0,
		"7/7":  1.0,
		"5/5":  1.0,
		"half": 0.5,
		"4/8":  0.5,
		"1/8":  0.125,
		"5/7":  5.0 / 7.0,
		"3/5":  0.6,
	}

	for variant, want := range cases {
		got, err := VariantToMultiplier(variant)
		if err != nil {
			t.Errorf("VariantToMultiplier(%q) returned error: %v", variant, err)
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("VariantToMultiplier(%q) = %v, want %v", variant, got, want)
		}
	}
}

func TestVariantToMultiplierRejectsMalformed(t *testing.T) {
	for _, variant := range []string{"", "banana", "1/0", "0/8", "9/8", "-1/8", "a/b", "1/2/3"} {
		if _, err := VariantToMultiplier(variant); err == nil {
			t.Errorf("VariantToMultiplier(%q) should have failed", variant)
		}
	}
}

func TestVariantsForDaysTable(t *testing.T) {
	cases := []struct {
		days int
		want []string
	}{
		{24, []string{"2/8", "4/8", "6/8", "8/8"}},
		{25, []string{"1/5", "2/5", "3/5", "4/5", "5/5", "half"}},
		{28, []string{"1/7", "2/7", "3/7", "4/7", "5/7", "6/7", "7/7"}},
		{29, []string{"1/5", "2/5", "3/5", "4/5", "5/5", "half"}},
		{30, []string{"1/5", "2/5", "3/5", "4/5", "5/5", "half"}},
		{31, []string{"1/8", "2/8", "3/8", "4/8", "5/8", "6/8", "7/8", "8/8"}},
		{3, []string{"1/8", "2/8", "3/8", "4/8", "5/8", "6/8", "7/8", "8/8"}},
	}

	for _, tc := range cases {
		got := VariantsForDays(tc.days)
		if len(got) != len(tc.want) {
			t.Errorf("VariantsForDays(%d) = %v, want %v", tc.days, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("VariantsForDays(%d)[%d] = %q, want %q", tc.days, i, got[i], tc.want[i])
			}
		}
	}
}

func TestVariantsForDaysMultipliersInRange(t *testing.T) {
	for _, days := range []int{24, 25, 28, 29, 30, 31, 17} {
		for _, v := range VariantsForDays(days) {
			m, err := VariantToMultiplier(v)
			if err != nil {
				t.Fatalf("table for %d days contains invalid variant %q: %v", days, v, err)
			}
			if m <= 0 || m > 1 {
				t.Errorf("variant %q for %d days has multiplier %v outside (0,1]", v, days, m)
			}
		}
	}
}

func TestIsValidVariant(t *testing.T) {
	if !IsValidVariant("full", 28) {
		t.Error("full should be valid for any day-count")
	}
	if !IsValidVariant("5/7", 28) {
		t.Error("5/7 should be valid for 28 days")
	}
	if IsValidVariant("5/7", 31) {
		t.Error("5/7 should not be valid for 31 days")
	}
	if IsValidVariant("banana", 31) {
		t.Error("banana should never be valid")
	}
}
