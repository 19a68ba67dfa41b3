package store

import (
	"github.com/sadopc/actra/internal/timeval"
)

// CurrentInterval returns the interval the trackable is (or was last) tracking.
func (s *Store) CurrentInterval(id string) *Interval {
	t := s.Get(id)
	if t == nil || t.current == "" {
		return nil
	}
	return s.intervals[t.current]
}

// TrackingState is Active iff the current interval is open.
func (s *Store) TrackingState(id string) State {
	if iv := s.CurrentInterval(id); iv != nil && iv.State == Active {
		return Active
	}
	return Inactive
}

// StartTracking opens a new interval on id and then starts every project
// currently observing it. Starting an already active trackable is a no-op.
func (s *Store) StartTracking(id string) *Interval {
	t := s.Get(id)
	if t == nil || s.TrackingState(id) == Active {
		return nil
	}
	iv := Begin(s.Now())
	t.current = iv.ID
	t.history.add(iv.ID)
	s.AddInterval(iv, id)
	for _, observerID := range s.Observers(id) {
		s.StartTracking(observerID)
	}
	return iv
}

// StopTracking closes the current interval on id and stops every observer.
// Stopping a trackable that is not active is a no-op.
func (s *Store) StopTracking(id string) {
	iv := s.CurrentInterval(id)
	if iv == nil || iv.State == Inactive {
		return
	}
	iv.Finish(s.Now())
	for _, observerID := range s.Observers(id) {
		s.StopTracking(observerID)
	}
}

// TrackingInterval returns an interval only if it is in id's own history.
func (s *Store) TrackingInterval(id, intervalID string) *Interval {
	t := s.Get(id)
	if t == nil || !t.ownsHistory(intervalID) {
		return nil
	}
	return s.intervals[intervalID]
}

// History returns the intervals of id's own history ordered by start.
// History ids whose interval has been deleted are skipped.
func (s *Store) History(id string) []*Interval {
	t := s.Get(id)
	if t == nil {
		return nil
	}
	out := make([]*Interval, 0, len(t.history))
	for ivID := range t.history {
		if iv := s.intervals[ivID]; iv != nil {
			out = append(out, iv)
		}
	}
	sortIntervals(out)
	return out
}

// SetIntervalTime moves the interval's start so its duration equals v,
// anchored to its end (or now while still open).
func (s *Store) SetIntervalTime(id, intervalID string, v timeval.Value) *Interval {
	iv := s.TrackingInterval(id, intervalID)
	if iv == nil {
		return nil
	}
	end := s.Now()
	if iv.End != nil {
		end = *iv.End
	}
	iv.Start = end - v.TotalSeconds()
	return iv
}

// SetIntervalFields applies a manual correction to any indexed interval.
func (s *Store) SetIntervalFields(intervalID string, f IntervalFields) (*Interval, bool) {
	iv := s.intervals[intervalID]
	if iv == nil {
		return nil, false
	}
	iv.SetFields(f, s.Now())
	return iv, true
}

// DeleteInterval removes the interval from id's history and from every
// observer's history, then drops it from the global index. An open current
// interval is stopped first so observers do not keep running.
func (s *Store) DeleteInterval(id, intervalID string) {
	if iv := s.CurrentInterval(id); iv != nil && iv.ID == intervalID {
		s.StopTracking(id)
	}
	s.deleteInterval(id, intervalID, idSet{})
	s.DeleteIntervalGlobal(intervalID)
}

func (s *Store) deleteInterval(id, intervalID string, seen idSet) {
	if seen.has(id) {
		return
	}
	seen.add(id)
	t := s.Get(id)
	if t == nil {
		return
	}
	t.history.remove(intervalID)
	for _, observerID := range s.Observers(id) {
		s.deleteInterval(observerID, intervalID, seen)
	}
}
