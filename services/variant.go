package services

import (
	"fmt"
	"strconv"
	"strings"
)

// VariantToMultiplier resolves a variant token to its fractional multiplier
// in (0,1]. "full" and "half" are legacy aliases kept for instances created
// before fraction strings existed. Malformed variants are an error, never
// silently coerced to full.
func VariantToMultiplier(variant string) (float64, error) {
	switch variant {
	case "full", "8/8", "7/7", "5/5":
		return 1.0, nil
	case "half", "4/8":
		return 0.5, nil
	}

	parts := strings.SplitN(variant, "/", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("unknown variant %q", variant)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("unknown variant %q", variant)
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("unknown variant %q", variant)
	}
	if d <= 0 || n <= 0 || n > d {
		return 0, fmt.Errorf("variant %q is not a fraction in (0,1]", variant)
	}
	return float64(n) / float64(d), nil
}

// VariantsForDays returns the valid variant set for a template length. The
// day-count decides the denominator so that every scaled per-day distance
// stays integer-divisible:
//
//	24 days        -> eighths in quarter steps
//	25, 29, 30     -> fifths, plus the legacy "half"
//	28 days        -> sevenths
//	31 days        -> eighths
//	anything else  -> eighths
func VariantsForDays(days int) []string {
	switch days {
	case 24:
		return []string{"2/8", "4/8", "6/8", "8/8"}
	case 25, 29, 30:
		return []string{"1/5", "2/5", "3/5", "4/5", "5/5", "half"}
	case 28:
		return []string{"1/7", "2/7", "3/7", "4/7", "5/7", "6/7", "7/7"}
	case 31:
		return []string{"1/8", "2/8", "3/8", "4/8", "5/8", "6/8", "7/8", "8/8"}
	default:
		return []string{"1/8", "2/8", "3/8", "4/8", "5/8", "6/8", "7/8", "8/8"}
	}
}

// IsValidVariant reports whether variant belongs to the set for the given
// day-count. "full" is accepted everywhere as the alias of the top entry.
func IsValidVariant(variant string, days int) bool {
	if variant == "full" {
		return true
	}
	for _, v := range VariantsForDays(days) {
		if v == variant {
			return true
		}
	}
	return false
}
