package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cutoff is the half-month label of a pay period
type Cutoff string

// Cutoff constants
const (
	CutoffFirst  Cutoff = "first"
	CutoffSecond Cutoff = "second"
)

// ErrInvalidPeriod is returned when a cutoff period cannot be resolved
var ErrInvalidPeriod = errors.New("invalid cutoff period")

const (
	minPeriodYear = 2000
	maxPeriodYear = 9999
)

// ParseCutoff accepts "first"/"second" and the "1st"/"2nd" shorthands, case-insensitively
func ParseCutoff(s string) (Cutoff, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "1st", "1":
		return CutoffFirst, nil
	case "second", "2nd", "2":
		return CutoffSecond, nil
	}
	return "", fmt.Errorf("%w: cutoff must be first or second, got %q", ErrInvalidPeriod, s)
}

// CutoffPeriod identifies a half-month payroll window
type CutoffPeriod struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Cutoff Cutoff `json:"cutoff"`
}

// PeriodRange is the resolved date range of a cutoff period. Dates are UTC midnights.
type PeriodRange struct {
	CutoffPeriod
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Anchor time.Time `json:"anchor"`
}

// ResolvePeriod turns (year, month, cutoff label) into a date range and anchor date.
// First covers days 1-15 anchored on the 15th; Second covers day 16 to the last day
// of the month and is anchored on that last day.
func ResolvePeriod(year, month int, label string) (PeriodRange, error) {
	cutoff, err := ParseCutoff(label)
	if err != nil {
		return PeriodRange{}, err
	}
	p := CutoffPeriod{Year: year, Month: month, Cutoff: cutoff}
	return p.Resolve()
}

// Validate checks the period fields without resolving dates
func (p CutoffPeriod) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12, got %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < minPeriodYear || p.Year > maxPeriodYear {
		return fmt.Errorf("%w: year out of range: %d", ErrInvalidPeriod, p.Year)
	}
	if p.Cutoff != CutoffFirst && p.Cutoff != CutoffSecond {
		return fmt.Errorf("%w: cutoff must be first or second, got %q", ErrInvalidPeriod, p.Cutoff)
	}
	return nil
}

// Resolve computes the date range of the period
func (p CutoffPeriod) Resolve() (PeriodRange, error) {
	if err := p.Validate(); err != nil {
		return PeriodRange{}, err
	}

	month := time.Month(p.Month)
	if p.Cutoff == CutoffFirst {
		start := time.Date(p.Year, month, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(p.Year, month, 15, 0, 0, 0, 0, time.UTC)
		return PeriodRange{CutoffPeriod: p, Start: start, End: end, Anchor: end}, nil
	}

	start := time.Date(p.Year, month, 16, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month normalizes to the last day of this one
	end := time.Date(p.Year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return PeriodRange{CutoffPeriod: p, Start: start, End: end, Anchor: end}, nil
}

// String renders the period as "2025-06/first"
func (p CutoffPeriod) String() string {
	return fmt.Sprintf("%04d-%02d/%s", p.Year, p.Month, p.Cutoff)
}

// Contains reports whether the calendar date of t falls inside the range (inclusive)
func (r PeriodRange) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(r.Start) && !d.After(r.End)
}

// PeriodFor returns the cutoff period containing the calendar date of t
func PeriodFor(t time.Time) CutoffPeriod {
	cutoff := CutoffFirst
	if t.Day() > 15 {
		cutoff = CutoffSecond
	}
	return CutoffPeriod{Year: t.Year(), Month: int(t.Month()), Cutoff: cutoff}
}
