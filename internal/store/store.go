package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	currentVersion = "v.0.3"
	storeType      = "JsonPersistentStore"
)

// Store is the in-memory registry of trackables and tracking intervals.
// It is not safe for concurrent use; callers serialise access.
type Store struct {
	id        string
	version   string
	storeType string

	activities map[string]*Trackable
	projects   map[string]*Trackable
	intervals  map[string]*Interval
	owners     map[string]string // interval id -> owning trackable id
	names      map[string]string // name -> trackable id
	observers  map[string]idSet  // trackable id -> ids of projects containing it
	active     string

	now func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithID fixes the store id instead of generating one.
func WithID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.id = id
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		id:         uuid.NewString(),
		version:    currentVersion,
		storeType:  storeType,
		activities: make(map[string]*Trackable),
		projects:   make(map[string]*Trackable),
		intervals:  make(map[string]*Interval),
		owners:     make(map[string]string),
		names:      make(map[string]string),
		observers:  make(map[string]idSet),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ID() string      { return s.id }
func (s *Store) Version() string { return s.version }
func (s *Store) Type() string    { return s.storeType }

// Now returns the store clock in epoch seconds.
func (s *Store) Now() float64 {
	t := s.now()
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// NewActivity builds an unregistered activity with a fresh id.
func NewActivity(name string, color Color) *Trackable {
	return newTrackable(KindActivity, uuid.NewString(), name, color)
}

// NewProject builds an unregistered project with a fresh id.
func NewProject(name string, color Color) *Trackable {
	return newTrackable(KindProject, uuid.NewString(), name, color)
}

// Get returns the trackable with id, or nil.
func (s *Store) Get(id string) *Trackable {
	if t, ok := s.activities[id]; ok {
		return t
	}
	if t, ok := s.projects[id]; ok {
		return t
	}
	return nil
}

// Project returns the project with id, or nil when absent or an activity.
func (s *Store) Project(id string) *Trackable {
	return s.projects[id]
}

// Activity returns the activity with id, or nil when absent or a project.
func (s *Store) Activity(id string) *Trackable {
	return s.activities[id]
}

func (s *Store) Activities() []*Trackable { return sortedByName(s.activities) }
func (s *Store) Projects() []*Trackable   { return sortedByName(s.projects) }

// All returns every trackable sorted by name.
func (s *Store) All() []*Trackable {
	all := make([]*Trackable, 0, len(s.activities)+len(s.projects))
	all = append(all, s.Activities()...)
	all = append(all, s.Projects()...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].name < all[j].name })
	return all
}

func sortedByName(m map[string]*Trackable) []*Trackable {
	out := make([]*Trackable, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].name == out[j].name {
			return out[i].id < out[j].id
		}
		return out[i].name < out[j].name
	})
	return out
}

// IDByName resolves a registered name.
func (s *Store) IDByName(name string) (string, bool) {
	id, ok := s.names[name]
	return id, ok
}

func (s *Store) NameIsRegistered(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Put registers a trackable. It fails with ErrNameConflict when the name
// already belongs to a different id.
func (s *Store) Put(t *Trackable) error {
	if owner, ok := s.names[t.name]; ok && owner != t.id {
		return fmt.Errorf("put trackable %s: name %q belongs to %s: %w", t.id, t.name, owner, ErrNameConflict)
	}
	s.insert(t)
	s.names[t.name] = t.id
	return nil
}

func (s *Store) insert(t *Trackable) {
	delete(s.activities, t.id)
	delete(s.projects, t.id)
	if t.kind == KindProject {
		s.projects[t.id] = t
	} else {
		s.activities[t.id] = t
	}
}

// Delete removes a trackable. A running trackable is stopped first. With
// cascade every interval it owns leaves the global index. Observers always
// forget it and its name is released. Deleting an absent id is a no-op.
func (s *Store) Delete(id string, cascade bool) {
	t := s.Get(id)
	if t == nil {
		return
	}
	s.StopTracking(id)
	if cascade {
		for _, ivID := range t.history.sorted() {
			if s.owners[ivID] == id {
				s.DeleteIntervalGlobal(ivID)
			}
		}
	}
	for _, observerID := range s.Observers(id) {
		s.RemoveMember(observerID, id)
	}
	if t.kind == KindProject {
		for _, memberID := range t.members.sorted() {
			s.RemoveMember(id, memberID)
		}
	}
	delete(s.observers, id)
	if s.names[t.name] == id {
		delete(s.names, t.name)
	}
	delete(s.activities, id)
	delete(s.projects, id)
	if s.active == id {
		s.active = ""
	}
}

// Rename swaps the registered name of a trackable.
func (s *Store) Rename(id, name string) (*Trackable, error) {
	t := s.Get(id)
	if t == nil {
		return nil, fmt.Errorf("rename %s: %w", id, ErrNotFound)
	}
	if owner, ok := s.names[name]; ok {
		if owner == id {
			return t, nil
		}
		return nil, fmt.Errorf("rename %s to %q: %w", id, name, ErrNameConflict)
	}
	if s.names[t.name] == id {
		delete(s.names, t.name)
	}
	t.name = name
	s.names[name] = id
	return t, nil
}

func (s *Store) SetColor(id string, c Color) (*Trackable, error) {
	t := s.Get(id)
	if t == nil {
		return nil, fmt.Errorf("recolor %s: %w", id, ErrNotFound)
	}
	t.color = NewColor(c.Red, c.Green, c.Blue)
	return t, nil
}

func (s *Store) CurrentlyActive() string { return s.active }

func (s *Store) SetCurrentlyActive(id string) { s.active = id }

// Interval returns the globally indexed interval, or nil.
func (s *Store) Interval(id string) *Interval {
	return s.intervals[id]
}

// Intervals returns every indexed interval ordered by start time.
func (s *Store) Intervals() []*Interval {
	out := make([]*Interval, 0, len(s.intervals))
	for _, iv := range s.intervals {
		out = append(out, iv)
	}
	sortIntervals(out)
	return out
}

func sortIntervals(ivs []*Interval) {
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].Start == ivs[j].Start {
			return ivs[i].ID < ivs[j].ID
		}
		return ivs[i].Start < ivs[j].Start
	})
}

// IntervalOwner returns the id of the trackable the interval was recorded against.
func (s *Store) IntervalOwner(intervalID string) (string, bool) {
	owner, ok := s.owners[intervalID]
	return owner, ok
}

// AddInterval indexes an interval under owner unless it is already known.
func (s *Store) AddInterval(iv *Interval, owner string) {
	if _, ok := s.intervals[iv.ID]; ok {
		return
	}
	if _, ok := s.owners[iv.ID]; ok {
		return
	}
	s.intervals[iv.ID] = iv
	s.owners[iv.ID] = owner
}

// DeleteIntervalGlobal drops an interval from both global indexes.
func (s *Store) DeleteIntervalGlobal(id string) {
	delete(s.intervals, id)
	delete(s.owners, id)
}

// SetTrackingHistory replaces a trackable's own history. Intervals not yet
// indexed are added with id as owner; intervals whose owner no longer exists
// are adopted by id.
func (s *Store) SetTrackingHistory(id string, intervals []*Interval) error {
	t := s.Get(id)
	if t == nil {
		return fmt.Errorf("set tracking history of %s: %w", id, ErrNotFound)
	}
	t.history = idSet{}
	for _, iv := range intervals {
		if iv == nil {
			continue
		}
		t.history.add(iv.ID)
		s.AddInterval(iv, id)
		if owner, ok := s.owners[iv.ID]; ok && s.Get(owner) == nil {
			s.owners[iv.ID] = id
		}
	}
	return nil
}

// Observers returns the ids of projects directly containing id.
func (s *Store) Observers(id string) []string {
	return s.observers[id].sorted()
}

// Members returns the direct members of a project.
func (s *Store) Members(projectID string) []*Trackable {
	p := s.projects[projectID]
	if p == nil {
		return nil
	}
	var out []*Trackable
	for _, id := range p.members.sorted() {
		if m := s.Get(id); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) addObserver(childID, projectID string) {
	set, ok := s.observers[childID]
	if !ok {
		set = idSet{}
		s.observers[childID] = set
	}
	set.add(projectID)
}

func (s *Store) removeObserver(childID, projectID string) {
	set, ok := s.observers[childID]
	if !ok {
		return
	}
	set.remove(projectID)
	if len(set) == 0 {
		delete(s.observers, childID)
	}
}
