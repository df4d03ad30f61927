package article

import "time"

// Day is the nominal width of an extraction window. Windows step by calendar
// day, so across a DST change a window is 23 or 25 hours long.
const Day = 24 * time.Hour

// Window is the left-inclusive range [Start, next calendar day) searched in one unit.
type Window struct {
	Start time.Time
}

// End returns the exclusive end of the window: the same wall-clock time one
// calendar day later.
func (w Window) End() time.Time {
	return w.Start.AddDate(0, 0, 1)
}

// Day returns the window start as YYYY-MM-DD; this is the persisted search_date.
func (w Window) Day() string {
	return w.Start.Format(DateLayout)
}

// Windows tiles [start, now) into contiguous one-calendar-day windows.
// The last window may extend past now.
func Windows(start, now time.Time) []Window {
	var out []Window
	for cur := start; cur.Before(now); cur = cur.AddDate(0, 0, 1) {
		out = append(out, Window{Start: cur})
	}
	return out
}
