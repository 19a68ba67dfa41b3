package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sadopc/actra/internal/timeval"
)

type intervalRecord struct {
	ID               string        `json:"id"`
	StartTimeSeconds float64       `json:"startTimeSeconds"`
	EndTimeSeconds   *float64      `json:"endTimeSeconds"`
	State            State         `json:"state"`
	Duration         timeval.Parts `json:"duration"`
}

type trackableRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Color           Color    `json:"color"`
	TrackingHistory []string `json:"trackingHistory"`
	Observers       []string `json:"observers"`
	CurrentInterval *string  `json:"currentInterval"`
	Trackables      []string `json:"trackables,omitempty"`
}

type ownerRecord struct {
	IntervalID  string `json:"intervalId"`
	TrackableID string `json:"trackableId"`
}

type snapshot struct {
	StoreID                    string            `json:"storeId"`
	Version                    string            `json:"version"`
	StoreType                  string            `json:"storeType"`
	Activities                 []trackableRecord `json:"activities"`
	Projects                   []trackableRecord `json:"projects"`
	TrackingIntervals          []intervalRecord  `json:"trackingIntervals"`
	IntervalsToTrackables      []ownerRecord     `json:"intervalsToTrackables"`
	CurrentlyActiveTrackableID *string           `json:"currentlyActiveTrackableId"`
}

// Marshal serialises the whole store. Output is ordered so equal stores
// produce equal bytes.
func (s *Store) Marshal() ([]byte, error) {
	now := s.Now()
	snap := snapshot{
		StoreID:               s.id,
		Version:               s.version,
		StoreType:             s.storeType,
		Activities:            []trackableRecord{},
		Projects:              []trackableRecord{},
		TrackingIntervals:     []intervalRecord{},
		IntervalsToTrackables: []ownerRecord{},
	}
	for _, t := range s.Activities() {
		snap.Activities = append(snap.Activities, s.record(t))
	}
	for _, t := range s.Projects() {
		rec := s.record(t)
		rec.Trackables = t.members.sorted()
		snap.Projects = append(snap.Projects, rec)
	}
	for _, iv := range s.Intervals() {
		snap.TrackingIntervals = append(snap.TrackingIntervals, intervalRecord{
			ID:               iv.ID,
			StartTimeSeconds: iv.Start,
			EndTimeSeconds:   iv.End,
			State:            iv.State,
			Duration:         iv.Duration(timeval.HMS, now).Parts(),
		})
		if owner, ok := s.owners[iv.ID]; ok {
			snap.IntervalsToTrackables = append(snap.IntervalsToTrackables, ownerRecord{IntervalID: iv.ID, TrackableID: owner})
		}
	}
	if s.active != "" {
		active := s.active
		snap.CurrentlyActiveTrackableID = &active
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal store %s: %w", s.id, err)
	}
	return data, nil
}

func (s *Store) record(t *Trackable) trackableRecord {
	rec := trackableRecord{
		ID:              t.id,
		Name:            t.name,
		Color:           t.color,
		TrackingHistory: t.history.sorted(),
		Observers:       s.Observers(t.id),
	}
	if t.current != "" {
		current := t.current
		rec.CurrentInterval = &current
	}
	return rec
}

// Unmarshal rebuilds a store from Marshal output. Blank input yields an
// empty store. The name registry and observer index are derived from the
// records; the stored observer lists are only used when a project record
// does not list its members.
func Unmarshal(data []byte, opts ...Option) (*Store, error) {
	if strings.TrimSpace(string(data)) == "" {
		return New(opts...), nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal store: %w", err)
	}

	s := New(append([]Option{WithID(snap.StoreID)}, opts...)...)
	if snap.Version != "" {
		s.version = snap.Version
	}
	if snap.StoreType != "" {
		s.storeType = snap.StoreType
	}

	for _, rec := range snap.TrackingIntervals {
		iv := &Interval{ID: rec.ID, Start: rec.StartTimeSeconds, State: rec.State}
		if rec.EndTimeSeconds != nil {
			end := *rec.EndTimeSeconds
			iv.End = &end
		}
		s.intervals[iv.ID] = iv
	}
	for _, rec := range snap.IntervalsToTrackables {
		if _, ok := s.intervals[rec.IntervalID]; ok {
			s.owners[rec.IntervalID] = rec.TrackableID
		}
	}

	hydrate := func(kind Kind, rec trackableRecord) error {
		t := newTrackable(kind, rec.ID, rec.Name, NewColor(rec.Color.Red, rec.Color.Green, rec.Color.Blue))
		for _, id := range rec.TrackingHistory {
			t.history.add(id)
		}
		if rec.CurrentInterval != nil {
			t.current = *rec.CurrentInterval
		}
		if err := s.Put(t); err != nil {
			return fmt.Errorf("unmarshal store: %w", err)
		}
		return nil
	}
	for _, rec := range snap.Activities {
		if err := hydrate(KindActivity, rec); err != nil {
			return nil, err
		}
	}
	for _, rec := range snap.Projects {
		if err := hydrate(KindProject, rec); err != nil {
			return nil, err
		}
	}

	for _, rec := range snap.Projects {
		p := s.projects[rec.ID]
		for _, memberID := range rec.Trackables {
			if s.Get(memberID) == nil {
				continue
			}
			p.members.add(memberID)
			s.addObserver(memberID, p.id)
		}
	}
	for _, rec := range append(append([]trackableRecord{}, snap.Activities...), snap.Projects...) {
		for _, observerID := range rec.Observers {
			if p := s.projects[observerID]; p != nil && !p.members.has(rec.ID) {
				p.members.add(rec.ID)
				s.addObserver(rec.ID, observerID)
			}
		}
	}

	// Intervals recorded without an owner belong to whoever holds them.
	for _, t := range s.All() {
		for ivID := range t.history {
			if _, ok := s.intervals[ivID]; !ok {
				continue
			}
			if _, ok := s.owners[ivID]; !ok {
				s.owners[ivID] = t.id
			}
		}
	}

	if snap.CurrentlyActiveTrackableID != nil && s.Get(*snap.CurrentlyActiveTrackableID) != nil {
		s.active = *snap.CurrentlyActiveTrackableID
	}
	return s, nil
}
