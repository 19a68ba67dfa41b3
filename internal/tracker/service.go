package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sadopc/actra/internal/persist"
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
)

// Actions reported in Status.
const (
	ActionStart = "startTracking"
	ActionStop  = "stopTracking"
)

// Status describes a trackable after a start or stop.
type Status struct {
	ID      string
	Name    string
	Kind    store.Kind
	State   store.State
	Action  string
	Message string
	// CurrentInterval is the length of the interval just closed by a stop.
	CurrentInterval *timeval.Parts
}

// Service is the façade over the store used by the TUI and CLI. Every
// mutating call saves through the queue once it has been applied; a failed
// save is logged and the in-memory change stays.
type Service struct {
	mu     sync.Mutex
	store  *store.Store
	queue  *persist.Queue
	logger *slog.Logger
	opts   []store.Option
}

// New creates a service over an empty store. Call Load to hydrate it.
func New(queue *persist.Queue, logger *slog.Logger, opts ...store.Option) *Service {
	return &Service{
		store:  store.New(opts...),
		queue:  queue,
		logger: logger,
		opts:   opts,
	}
}

// Load replaces the store with the persisted snapshot. An empty payload gives
// a fresh store. A load or decode failure also leaves a fresh store and
// returns false.
func (s *Service) Load(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, ok := s.queue.Load(ctx)
	if !ok {
		s.store = store.New(s.opts...)
		return false
	}
	st, err := store.Unmarshal([]byte(payload), s.opts...)
	if err != nil {
		s.logger.Error("decode snapshot", slog.Any("error", err))
		s.store = store.New(s.opts...)
		return false
	}
	s.store = st
	s.logger.Info("store loaded",
		slog.String("store", st.ID()),
		slog.Int("trackables", len(st.All())),
		slog.Int("intervals", len(st.Intervals())),
	)
	return true
}

// Save persists the current store.
func (s *Service) Save(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Service) save(ctx context.Context) bool {
	data, err := s.store.Marshal()
	if err != nil {
		s.logger.Error("encode snapshot", slog.Any("error", err))
		return false
	}
	return s.queue.Save(ctx, string(data))
}

// View runs fn with read access to the store. fn must not keep the pointer.
func (s *Service) View(fn func(st *store.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

func (s *Service) StoreID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ID()
}

// Resolve accepts a trackable id or a registered name.
func (s *Service) Resolve(ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(ref)
}

func (s *Service) resolve(ref string) (string, error) {
	if s.store.Get(ref) != nil {
		return ref, nil
	}
	if id, ok := s.store.IDByName(ref); ok {
		return id, nil
	}
	return "", fmt.Errorf("trackable %q: %w", ref, store.ErrNotFound)
}

func (s *Service) CreateActivity(ctx context.Context, name string, color store.Color) (string, error) {
	return s.create(ctx, store.NewActivity(name, color))
}

func (s *Service) CreateProject(ctx context.Context, name string, color store.Color) (string, error) {
	return s.create(ctx, store.NewProject(name, color))
}

func (s *Service) create(ctx context.Context, t *store.Trackable) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Put(t); err != nil {
		return "", err
	}
	s.logger.Info("trackable created", slog.String("id", t.ID()), slog.String("name", t.Name()), slog.String("kind", t.Kind().String()))
	s.save(ctx)
	return t.ID(), nil
}

func (s *Service) status(t *store.Trackable, action string) Status {
	return Status{
		ID:     t.ID(),
		Name:   t.Name(),
		Kind:   t.Kind(),
		State:  s.store.TrackingState(t.ID()),
		Action: action,
	}
}

// Start begins tracking id. A different currently active trackable is
// stopped first and the slot is released. Only activities take the
// currently active slot.
func (s *Service) Start(ctx context.Context, id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.store.Get(id)
	if t == nil {
		s.logger.Warn("start: trackable not in store", slog.String("id", id), slog.String("store", s.store.ID()))
		return Status{}, fmt.Errorf("start %s: %w", id, store.ErrNotFound)
	}

	active := s.store.CurrentlyActive()
	if active == id && s.store.TrackingState(id) == store.Active {
		st := s.status(t, ActionStart)
		st.Message = fmt.Sprintf("already tracking %s", t.Name())
		return st, nil
	}
	if active != "" && active != id {
		s.store.StopTracking(active)
	}
	s.store.SetCurrentlyActive("")
	if !t.IsProject() {
		s.store.SetCurrentlyActive(id)
	}
	s.store.StartTracking(id)
	s.logger.Info("tracking started", slog.String("id", id), slog.String("name", t.Name()))
	s.save(ctx)

	st := s.status(t, ActionStart)
	st.Message = "success"
	return st, nil
}

// Stop ends tracking of id and clears the currently active slot if it held id.
func (s *Service) Stop(ctx context.Context, id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.store.Get(id)
	if t == nil {
		s.logger.Warn("stop: trackable not in store", slog.String("id", id), slog.String("store", s.store.ID()))
		return Status{}, fmt.Errorf("stop %s: %w", id, store.ErrNotFound)
	}
	s.store.StopTracking(id)
	if s.store.CurrentlyActive() == id {
		s.store.SetCurrentlyActive("")
	}
	s.logger.Info("tracking stopped", slog.String("id", id), slog.String("name", t.Name()))
	s.save(ctx)

	st := s.status(t, ActionStop)
	if iv := s.store.CurrentInterval(id); iv != nil {
		parts := iv.Duration(timeval.HMS, s.store.Now()).Parts()
		st.CurrentInterval = &parts
	}
	return st, nil
}

// CurrentlyActive returns the id of the running activity, or "".
func (s *Service) CurrentlyActive() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.CurrentlyActive()
}

// AddMember nests memberID under projectID. It refuses anything that would
// make the containment graph cyclic.
func (s *Service) AddMember(ctx context.Context, projectID, memberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.With(slog.String("project", projectID), slog.String("member", memberID))
	switch {
	case s.store.Project(projectID) == nil:
		log.Warn("add member: project not in store")
		return false
	case s.store.Get(memberID) == nil:
		log.Warn("add member: member not in store")
		return false
	case projectID == memberID:
		log.Warn("add member: project cannot contain itself")
		return false
	case s.store.Find(projectID, memberID) != nil:
		log.Warn("add member: already a descendant")
		return false
	case s.store.Find(memberID, projectID) != nil:
		log.Warn("add member: member already contains project")
		return false
	}
	if !s.store.AddMember(projectID, memberID) {
		return false
	}
	log.Info("member added")
	s.save(ctx)
	return true
}

func (s *Service) RemoveMembers(ctx context.Context, projectID string, memberIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range memberIDs {
		s.store.RemoveMember(projectID, id)
	}
	s.save(ctx)
}

func (s *Service) Delete(ctx context.Context, id string, cascade bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Delete(id, cascade)
	s.logger.Info("trackable deleted", slog.String("id", id), slog.Bool("cascade", cascade))
	s.save(ctx)
}

// DeleteInterval removes an interval starting at the trackable that owns it.
// Deleting the owner's open interval stops it first.
func (s *Service) DeleteInterval(ctx context.Context, intervalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.store.IntervalOwner(intervalID)
	if !ok {
		return false
	}
	s.store.DeleteInterval(owner, intervalID)
	if s.store.CurrentlyActive() == owner && s.store.TrackingState(owner) != store.Active {
		s.store.SetCurrentlyActive("")
	}
	s.save(ctx)
	return true
}

func (s *Service) Rename(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.Rename(id, name); err != nil {
		return err
	}
	s.save(ctx)
	return nil
}

func (s *Service) Recolor(ctx context.Context, id string, c store.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.SetColor(id, c); err != nil {
		return err
	}
	s.save(ctx)
	return nil
}

// SetIntervalTime rewrites the length of one of the trackable's intervals.
func (s *Service) SetIntervalTime(ctx context.Context, trackableID, intervalID string, p timeval.Parts) (*timeval.Parts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setIntervalTime(ctx, trackableID, intervalID, p)
}

func (s *Service) setIntervalTime(ctx context.Context, trackableID, intervalID string, p timeval.Parts) (*timeval.Parts, error) {
	iv := s.store.SetIntervalTime(trackableID, intervalID, timeval.FromParts(p, timeval.HMS))
	if iv == nil {
		return nil, fmt.Errorf("set interval %s of %s: %w", intervalID, trackableID, store.ErrNotFound)
	}
	s.save(ctx)
	parts := iv.Duration(timeval.HMS, s.store.Now()).Parts()
	return &parts, nil
}

// SetCurrentIntervalTime is SetIntervalTime on the trackable's current interval.
func (s *Service) SetCurrentIntervalTime(ctx context.Context, trackableID string, p timeval.Parts) (*timeval.Parts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.store.Get(trackableID)
	if t == nil {
		return nil, fmt.Errorf("set current interval of %s: %w", trackableID, store.ErrNotFound)
	}
	return s.setIntervalTime(ctx, trackableID, t.CurrentIntervalID(), p)
}

// EditInterval applies a manual start/end correction.
func (s *Service) EditInterval(ctx context.Context, intervalID string, f store.IntervalFields) (*timeval.Parts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.store.SetIntervalFields(intervalID, f)
	if !ok {
		return nil, fmt.Errorf("edit interval %s: %w", intervalID, store.ErrNotFound)
	}
	s.save(ctx)
	parts := iv.Duration(timeval.HMS, s.store.Now()).Parts()
	return &parts, nil
}

// SetTrackingHistory replaces the history of id and of every project
// directly observing it.
func (s *Service) SetTrackingHistory(ctx context.Context, id string, intervals []*store.Interval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetTrackingHistory(id, intervals); err != nil {
		return err
	}
	for _, observerID := range s.store.Observers(id) {
		if err := s.store.SetTrackingHistory(observerID, intervals); err != nil {
			return err
		}
	}
	s.save(ctx)
	return nil
}

// Total is the tracked time of id, optionally inside w.
func (s *Service) Total(id string, w *store.Window, format timeval.Format) (timeval.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Get(id) == nil {
		return timeval.Zero(format), fmt.Errorf("total %s: %w", id, store.ErrNotFound)
	}
	return s.store.TotalTrackedTime(id, format, w), nil
}

func (s *Service) WithinSpan(w *store.Window) []store.SpanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinSpan(w, timeval.HMS)
}

// ProjectMembers returns the direct members of a project.
func (s *Service) ProjectMembers(id string) ([]*store.Trackable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Get(id) == nil {
		return nil, fmt.Errorf("members of %s: %w", id, store.ErrNotFound)
	}
	if s.store.Project(id) == nil {
		return nil, fmt.Errorf("members of %s: %w", id, store.ErrWrongKind)
	}
	return s.store.Members(id), nil
}

// Intervals returns the own history of id ordered by start.
func (s *Service) Intervals(id string) []*store.Interval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.History(id)
}
