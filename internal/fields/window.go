package fields

import "time"

// Window is an inclusive calendar-day range. Every membership check also
// widens the observed span, which later tightens "all time" charts to the
// dates that actually carry data.
type Window struct {
	Start time.Time
	End   time.Time

	min, max time.Time
	seen     bool
}

func NewWindow(start, end time.Time) *Window {
	return &Window{Start: Day(start), End: Day(end)}
}

// Contains reports whether t's calendar day is inside the window. A zero t is
// never inside and is not observed.
func (w *Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := Day(t.In(w.Start.Location()))
	if !w.seen || d.Before(w.min) {
		w.min = d
	}
	if !w.seen || d.After(w.max) {
		w.max = d
	}
	w.seen = true
	return !d.Before(w.Start) && !d.After(w.End)
}

// Observed returns the earliest and latest day seen so far.
func (w *Window) Observed() (time.Time, time.Time, bool) {
	return w.min, w.max, w.seen
}
