// Package schedule gates monitoring to configured trading windows.
package schedule

import (
	"fmt"
	"time"
)

// Range is one trading window as a closed "HH:MM" interval, both endpoints
// inclusive.
type Range struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// Gate decides whether a wall-clock instant falls inside any trading range.
// Comparison is lexicographic on the "HH:MM" rendering of local time; there
// is no timezone conversion and no weekday or holiday handling.
type Gate struct {
	ranges []Range
}

// New validates the ranges and builds a gate.
func New(ranges []Range) (*Gate, error) {
	for _, r := range ranges {
		if err := validateClock(r.Start); err != nil {
			return nil, fmt.Errorf("invalid range start %q: %w", r.Start, err)
		}
		if err := validateClock(r.End); err != nil {
			return nil, fmt.Errorf("invalid range end %q: %w", r.End, err)
		}
		if r.Start > r.End {
			return nil, fmt.Errorf("range start %q is after end %q", r.Start, r.End)
		}
	}
	return &Gate{ranges: ranges}, nil
}

// IsActive reports whether now falls inside any configured range.
func (g *Gate) IsActive(now time.Time) bool {
	hm := now.Format("15:04")
	for _, r := range g.ranges {
		if r.Start <= hm && hm <= r.End {
			return true
		}
	}
	return false
}

func validateClock(s string) error {
	if len(s) != 5 {
		return fmt.Errorf("want HH:MM, got %q", s)
	}
	_, err := time.Parse("15:04", s)
	return err
}
