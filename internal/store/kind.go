package store

import "fmt"

// ChangeKind swaps the variant of a trackable while keeping its identity:
// id, name, color, own history and current interval. Projects observing it
// keep doing so. A project turned into an activity loses its members.
func (s *Store) ChangeKind(id string, kind Kind) (*Trackable, error) {
	old := s.Get(id)
	if old == nil {
		return nil, fmt.Errorf("convert %s to %s: %w", id, kind, ErrNotFound)
	}
	if old.kind == kind {
		return nil, fmt.Errorf("convert %s to %s: already a %s: %w", id, kind, kind, ErrWrongKind)
	}
	if old.kind == KindProject {
		for _, memberID := range old.members.sorted() {
			s.RemoveMember(id, memberID)
		}
	}

	t := &Trackable{kind: kind, Identity: old.Identity.copy()}
	if kind == KindProject {
		t.members = idSet{}
	}
	s.insert(t)
	return t, nil
}

// SetCurrentInterval points id at one of its own history intervals.
func (s *Store) SetCurrentInterval(id, intervalID string) error {
	t := s.Get(id)
	if t == nil {
		return fmt.Errorf("set current interval of %s: %w", id, ErrNotFound)
	}
	if !t.ownsHistory(intervalID) || s.intervals[intervalID] == nil {
		return fmt.Errorf("set current interval of %s: interval %s: %w", id, intervalID, ErrNotFound)
	}
	t.current = intervalID
	return nil
}
