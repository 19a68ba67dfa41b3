package tracker

import (
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
)

// Node is one row of the trackable tree. A trackable nested in several
// projects appears once under each.
type Node struct {
	ID     string
	Name   string
	Kind   store.Kind
	Color  store.Color
	State  store.State
	Total  timeval.Value
	Depth  int
	Active bool // holds the currently active slot
}

// Tree flattens the containment graph depth first. Roots are trackables no
// project contains; totals honour w when it is not nil.
func (s *Service) Tree(w *store.Window) []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Node
	var walk func(t *store.Trackable, depth int, path map[string]bool)
	walk = func(t *store.Trackable, depth int, path map[string]bool) {
		if path[t.ID()] {
			return
		}
		path[t.ID()] = true
		defer delete(path, t.ID())

		out = append(out, Node{
			ID:     t.ID(),
			Name:   t.Name(),
			Kind:   t.Kind(),
			Color:  t.Color(),
			State:  s.store.TrackingState(t.ID()),
			Total:  s.store.TotalTrackedTime(t.ID(), timeval.HMS, w),
			Depth:  depth,
			Active: s.store.CurrentlyActive() == t.ID(),
		})
		for _, m := range s.store.Members(t.ID()) {
			walk(m, depth+1, path)
		}
	}
	for _, t := range s.store.All() {
		if len(s.store.Observers(t.ID())) == 0 {
			walk(t, 0, map[string]bool{})
		}
	}
	return out
}

// Roots returns the trackables no project contains.
func (s *Service) Roots() []*store.Trackable {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*store.Trackable
	for _, t := range s.store.All() {
		if len(s.store.Observers(t.ID())) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// List returns every trackable sorted by name.
func (s *Service) List() []*store.Trackable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// Running returns the active trackable and when its interval started.
func (s *Service) Running() (*store.Trackable, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.store.CurrentlyActive()
	if id == "" || s.store.TrackingState(id) != store.Active {
		return nil, 0, false
	}
	return s.store.Get(id), s.store.CurrentInterval(id).Start, true
}

// Now is the service clock in epoch seconds.
func (s *Service) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Now()
}

// Get returns the trackable with id, or nil.
func (s *Service) Get(id string) *store.Trackable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}
