package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sadopc/actra/internal/store"
)

const inheritedSuffix = "_inherited_tracking_intervals"

// Join merges trackables into one new activity named name that holds the
// union of their histories. The originals are deleted without touching
// their intervals. Unless observersShouldForget, every project that
// observed an original observes the new activity instead. A running session
// is closed on the originals and continues on the new activity. color
// defaults to the first trackable's.
func Join(st *store.Store, name string, ids []string, color *store.Color, observersShouldForget bool) (*store.Trackable, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("join %q: nothing to join", name)
	}
	joined := make(map[string]bool, len(ids))
	var originals []*store.Trackable
	for _, id := range ids {
		t := st.Get(id)
		if t == nil {
			return nil, fmt.Errorf("join %q: trackable %s: %w", name, id, store.ErrNotFound)
		}
		if joined[id] {
			continue
		}
		joined[id] = true
		originals = append(originals, t)
	}
	if owner, ok := st.IDByName(name); ok && !joined[owner] {
		return nil, fmt.Errorf("join %q: %w", name, store.ErrNameConflict)
	}
	c := originals[0].Color()
	if color != nil {
		c = *color
	}

	var (
		history   []*store.Interval
		seen      = make(map[string]bool)
		observers []string
		observing = make(map[string]bool)
		wasActive bool
		running   bool
	)
	for _, t := range originals {
		for _, iv := range st.History(t.ID()) {
			if !seen[iv.ID] {
				seen[iv.ID] = true
				history = append(history, iv)
			}
		}
		for _, obs := range st.Observers(t.ID()) {
			if !joined[obs] && !observing[obs] {
				observing[obs] = true
				observers = append(observers, obs)
			}
		}
		if st.CurrentlyActive() == t.ID() {
			wasActive = true
		}
		if st.TrackingState(t.ID()) == store.Active {
			running = true
		}
	}

	for _, t := range originals {
		st.Delete(t.ID(), false)
	}
	a := store.NewActivity(name, c)
	if err := st.Put(a); err != nil {
		return nil, fmt.Errorf("join %q: %w", name, err)
	}
	if err := st.SetTrackingHistory(a.ID(), history); err != nil {
		return nil, fmt.Errorf("join %q: %w", name, err)
	}
	if !observersShouldForget {
		for _, obs := range observers {
			st.AddMember(obs, a.ID())
		}
	}
	if running {
		st.StartTracking(a.ID())
	}
	if wasActive {
		st.SetCurrentlyActive(a.ID())
	}
	return a, nil
}

// ConvertActivityToProject turns an activity into a project with the same
// identity. Its history moves into a new member activity named
// "<name>_inherited_tracking_intervals", which also inherits a running
// session.
func ConvertActivityToProject(st *store.Store, id string) (*store.Trackable, error) {
	a := st.Get(id)
	if a == nil {
		return nil, fmt.Errorf("convert %s to project: %w", id, store.ErrNotFound)
	}
	if a.IsProject() {
		return nil, fmt.Errorf("convert %s to project: %w", id, store.ErrWrongKind)
	}
	inheritedName := a.Name() + inheritedSuffix
	if st.NameIsRegistered(inheritedName) {
		return nil, fmt.Errorf("convert %s to project: %q: %w", id, inheritedName, store.ErrNameConflict)
	}

	inherited := store.NewActivity(inheritedName, a.Color())
	if err := st.Put(inherited); err != nil {
		return nil, fmt.Errorf("convert %s to project: %w", id, err)
	}
	if err := st.SetTrackingHistory(inherited.ID(), st.History(id)); err != nil {
		return nil, fmt.Errorf("convert %s to project: %w", id, err)
	}
	if current := a.CurrentIntervalID(); current != "" {
		_ = st.SetCurrentInterval(inherited.ID(), current)
	}

	p, err := st.ChangeKind(id, store.KindProject)
	if err != nil {
		return nil, err
	}
	st.AddMember(p.ID(), inherited.ID())
	if st.CurrentlyActive() == id {
		st.SetCurrentlyActive(inherited.ID())
	}
	return p, nil
}

// ConvertProjectToActivity turns a project into an activity with the same
// identity, own history and current interval. Its members are released.
func ConvertProjectToActivity(st *store.Store, id string) (*store.Trackable, error) {
	p := st.Get(id)
	if p == nil {
		return nil, fmt.Errorf("convert %s to activity: %w", id, store.ErrNotFound)
	}
	if !p.IsProject() {
		return nil, fmt.Errorf("convert %s to activity: %w", id, store.ErrWrongKind)
	}
	return st.ChangeKind(id, store.KindActivity)
}

func (s *Service) Join(ctx context.Context, name string, ids []string, color *store.Color, observersShouldForget bool) (*store.Trackable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := Join(s.store, name, ids, color, observersShouldForget)
	if err != nil {
		s.logger.Warn("join failed", slog.String("name", name), slog.Any("error", err))
		return nil, err
	}
	s.logger.Info("trackables joined", slog.String("id", a.ID()), slog.String("name", name), slog.Int("count", len(ids)))
	s.save(ctx)
	return a, nil
}

func (s *Service) ConvertActivityToProject(ctx context.Context, id string) (*store.Trackable, error) {
	return s.convert(ctx, id, ConvertActivityToProject)
}

func (s *Service) ConvertProjectToActivity(ctx context.Context, id string) (*store.Trackable, error) {
	return s.convert(ctx, id, ConvertProjectToActivity)
}

func (s *Service) convert(ctx context.Context, id string, fn func(*store.Store, string) (*store.Trackable, error)) (*store.Trackable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := fn(s.store, id)
	if err != nil {
		s.logger.Warn("convert failed", slog.String("id", id), slog.Any("error", err))
		return nil, err
	}
	s.logger.Info("trackable converted", slog.String("id", id), slog.String("kind", t.Kind().String()))
	s.save(ctx)
	return t, nil
}
