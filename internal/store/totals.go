package store

import (
	"github.com/sadopc/actra/internal/timeval"
)

// untilSlack is how far past now an absent "until" reaches.
const untilSlack = 100.0

// Window filters intervals by offsets from now. A nil Since means from the
// beginning of time, a nil Until means up to just past now.
type Window struct {
	Since *timeval.Parts `json:"since,omitempty" yaml:"since,omitempty"`
	Until *timeval.Parts `json:"until,omitempty" yaml:"until,omitempty"`
}

// Bounds are the absolute edges of a resolved window, in epoch seconds.
type Bounds struct {
	Since float64
	Until float64
}

// Resolve turns the offsets into absolute bounds relative to now.
func (w Window) Resolve(now float64) Bounds {
	b := Bounds{Since: 0, Until: now + untilSlack}
	if w.Since != nil {
		b.Since = now - timeval.FromParts(*w.Since, timeval.S).TotalSeconds()
	}
	if w.Until != nil {
		b.Until = now - timeval.FromParts(*w.Until, timeval.S).TotalSeconds()
	}
	return b
}

// Includes reports whether the interval falls inside the bounds. Intervals
// straddling Since are included.
func (b Bounds) Includes(iv *Interval) bool {
	started := b.Since <= iv.Start ||
		(iv.Start < b.Since && (iv.State == Active || (iv.End != nil && b.Since < *iv.End)))
	return started && iv.Start <= b.Until
}

// Clip returns the span of iv after Since, closed at its end or now.
func (b Bounds) Clip(iv *Interval, now float64) *Interval {
	start := iv.Start
	if start < b.Since {
		start = b.Since
	}
	end := now
	if iv.State == Inactive && iv.End != nil {
		end = *iv.End
	}
	return &Interval{ID: iv.ID, Start: start, End: &end, State: Inactive}
}

// TotalTrackedTime sums the elapsed time of a trackable, optionally inside a
// window. Activities sum their own history; projects sum their current
// direct members so totals are right straight after membership changes.
func (s *Store) TotalTrackedTime(id string, format timeval.Format, w *Window) timeval.Value {
	now := s.Now()
	var bounds *Bounds
	if w != nil {
		b := w.Resolve(now)
		bounds = &b
	}
	return s.total(id, format, bounds, now, idSet{})
}

func (s *Store) total(id string, format timeval.Format, bounds *Bounds, now float64, seen idSet) timeval.Value {
	t := s.Get(id)
	if t == nil || seen.has(id) {
		return timeval.Zero(format)
	}
	seen.add(id)
	defer seen.remove(id)

	total := timeval.Zero(format)
	if t.kind == KindProject {
		for _, memberID := range t.members.sorted() {
			total = timeval.Add(total, s.total(memberID, format, bounds, now, seen), format)
		}
		return total
	}
	for _, iv := range s.History(id) {
		if bounds == nil {
			total = timeval.Add(total, iv.Duration(format, now), format)
			continue
		}
		if !bounds.Includes(iv) {
			continue
		}
		total = timeval.Add(total, bounds.Clip(iv, now).Duration(format, now), format)
	}
	return total
}

// SpanEntry groups the intervals of one trackable selected by WithinSpan.
type SpanEntry struct {
	Trackable *Trackable
	Intervals []*Interval
	Selected  timeval.Value
}

// WithinSpan returns every trackable owning at least one interval inside the
// window, with the unclipped intervals and their unclipped sum. A nil window
// selects everything.
func (s *Store) WithinSpan(w *Window, format timeval.Format) []SpanEntry {
	now := s.Now()
	grouped := make(map[string][]*Interval)
	for _, iv := range s.Intervals() {
		if w != nil && !w.Resolve(now).Includes(iv) {
			continue
		}
		owner, ok := s.owners[iv.ID]
		if !ok || s.Get(owner) == nil {
			continue
		}
		grouped[owner] = append(grouped[owner], iv)
	}

	var out []SpanEntry
	for _, t := range s.All() {
		ivs, ok := grouped[t.id]
		if !ok {
			if w != nil {
				continue
			}
			ivs = nil
		}
		selected := timeval.Zero(format)
		for _, iv := range ivs {
			selected = timeval.Add(selected, iv.Duration(format, now), format)
		}
		out = append(out, SpanEntry{Trackable: t, Intervals: ivs, Selected: selected})
	}
	return out
}
