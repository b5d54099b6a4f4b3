// Package recurring turns recurring transactions into the dated one-time
// occurrences they stand for.
package recurring

import (
	"fmt"
	"time"

	"zenbudget/internal/core"
)

// maxOccurrences bounds the dates produced by a single catch-up run for one
// template.
const maxOccurrences = 1000

// Stepper computes the n-th occurrence of a schedule anchored at a date.
// Occurrence 0 is the anchor itself.
type Stepper interface {
	Occurrence(anchor time.Time, n int) time.Time
}

type dailyStepper struct{}

func (dailyStepper) Occurrence(anchor time.Time, n int) time.Time {
	return anchor.AddDate(0, 0, n)
}

type weeklyStepper struct{}

func (weeklyStepper) Occurrence(anchor time.Time, n int) time.Time {
	return anchor.AddDate(0, 0, 7*n)
}

// monthlyStepper keeps the anchor's day of month, clamped to the last day of
// shorter months. Each occurrence is computed from the anchor, so a 31st
// anchor returns to the 31st after February.
type monthlyStepper struct {
	months int
}

func (s monthlyStepper) Occurrence(anchor time.Time, n int) time.Time {
	return addMonthsClamped(anchor, s.months*n)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

var steppers = map[core.Frequency]Stepper{
	core.Daily:   dailyStepper{},
	core.Weekly:  weeklyStepper{},
	core.Monthly: monthlyStepper{months: 1},
	core.Yearly:  monthlyStepper{months: 12},
}

// StepperFor returns the schedule of a repeating frequency.
func StepperFor(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q does not repeat", core.ErrInvalidFrequency, f)
	}
	return s, nil
}

// DueDates lists the occurrences of a schedule anchored at anchor that fall
// after latest and not after now, at most maxOccurrences of them. A zero
// latest means only the anchor has been recorded.
func DueDates(s Stepper, anchor, latest, now time.Time) []time.Time {
	if latest.Before(anchor) {
		latest = anchor
	}
	n := firstAfter(s, anchor, latest)
	var due []time.Time
	for ; len(due) < maxOccurrences; n++ {
		occ := s.Occurrence(anchor, n)
		if occ.After(now) {
			break
		}
		due = append(due, occ)
	}
	return due
}

// firstAfter returns the smallest n >= 1 whose occurrence is after latest.
// It jumps close to latest by elapsed time and settles by stepping.
func firstAfter(s Stepper, anchor, latest time.Time) int {
	n := 1
	switch st := s.(type) {
	case dailyStepper:
		n = int(latest.Sub(anchor) / (24 * time.Hour))
	case weeklyStepper:
		n = int(latest.Sub(anchor) / (7 * 24 * time.Hour))
	case monthlyStepper:
		ay, am, _ := anchor.Date()
		ly, lm, _ := latest.Date()
		n = ((ly-ay)*12 + int(lm-am)) / st.months
	}
	if n < 1 {
		n = 1
	}
	for n > 1 && s.Occurrence(anchor, n-1).After(latest) {
		n--
	}
	for !s.Occurrence(anchor, n).After(latest) {
		n++
	}
	return n
}
