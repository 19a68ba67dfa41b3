package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the two trackable variants.
type Kind int

const (
	KindActivity Kind = iota
	KindProject
)

func (k Kind) String() string {
	if k == KindProject {
		return "project"
	}
	return "activity"
}

// State of a tracking interval or trackable.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "ACTIVE"
	}
	return "INACTIVE"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts "ACTIVE" and "1" as active, anything else as inactive.
func (s *State) UnmarshalText(b []byte) error {
	switch strings.TrimSpace(string(b)) {
	case "ACTIVE", "1":
		*s = Active
	default:
		*s = Inactive
	}
	return nil
}

// Color is an RGB triple clamped to [0, 255].
type Color struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

func NewColor(r, g, b int) Color {
	return Color{Red: clampChannel(r), Green: clampChannel(g), Blue: clampChannel(b)}
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Hex renders the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", clampChannel(c.Red), clampChannel(c.Green), clampChannel(c.Blue))
}

// ParseHex reads #RRGGBB (the leading # is optional).
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("parse color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return NewColor(int(v>>16&0xFF), int(v>>8&0xFF), int(v&0xFF)), nil
}

type idSet map[string]struct{}

func (s idSet) add(id string)    { s[id] = struct{}{} }
func (s idSet) remove(id string) { delete(s, id) }

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func newIDSet(ids ...string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Identity is the activity-shaped record every trackable carries: naming,
// coloring, its own tracking history and the current interval pointer.
type Identity struct {
	id      string
	name    string
	color   Color
	history idSet
	current string
}

func (i Identity) copy() Identity {
	c := i
	c.history = newIDSet(i.history.sorted()...)
	return c
}

// Trackable is either an Activity or a Project. Projects additionally own a
// set of direct member ids.
type Trackable struct {
	kind Kind
	Identity
	members idSet
}

func newTrackable(kind Kind, id, name string, color Color) *Trackable {
	t := &Trackable{
		kind: kind,
		Identity: Identity{
			id:      id,
			name:    name,
			color:   color,
			history: idSet{},
		},
	}
	if kind == KindProject {
		t.members = idSet{}
	}
	return t
}

func (t *Trackable) ID() string      { return t.id }
func (t *Trackable) Name() string    { return t.name }
func (t *Trackable) Color() Color    { return t.color }
func (t *Trackable) Kind() Kind      { return t.kind }
func (t *Trackable) IsProject() bool { return t.kind == KindProject }

// CurrentIntervalID is empty when the trackable has never been started.
func (t *Trackable) CurrentIntervalID() string { return t.current }

// HistoryIDs returns the ids of the trackable's own history, sorted.
func (t *Trackable) HistoryIDs() []string { return t.history.sorted() }

// MemberIDs returns direct member ids; nil for activities.
func (t *Trackable) MemberIDs() []string {
	if t.members == nil {
		return nil
	}
	return t.members.sorted()
}

func (t *Trackable) HasMember(id string) bool {
	return t.members != nil && t.members.has(id)
}

func (t *Trackable) ownsHistory(intervalID string) bool {
	return t.history.has(intervalID)
}
