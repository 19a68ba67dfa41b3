package store

import (
	"github.com/google/uuid"
	"github.com/sadopc/actra/internal/timeval"
)

// Interval is one recorded span of elapsed time. End is nil while Active.
type Interval struct {
	ID    string
	Start float64 // seconds since epoch
	End   *float64
	State State
}

// IntervalFields is a partial update used for manual time correction.
type IntervalFields struct {
	Start *float64 `json:"startTimeSeconds,omitempty"`
	End   *float64 `json:"endTimeSeconds,omitempty"`
}

// Begin opens a new interval starting at now.
func Begin(now float64) *Interval {
	return &Interval{
		ID:    uuid.NewString(),
		Start: now,
		State: Active,
	}
}

// Finish closes the interval at now.
func (iv *Interval) Finish(now float64) {
	end := now
	iv.End = &end
	iv.State = Inactive
}

// SetFields overwrites only the provided fields. State is left untouched.
func (iv *Interval) SetFields(f IntervalFields, now float64) timeval.Value {
	if f.Start != nil {
		iv.Start = *f.Start
	}
	if f.End != nil {
		end := *f.End
		iv.End = &end
	}
	return iv.Duration(timeval.HMS, now)
}

// Duration is end-start when closed and now-start while open.
func (iv *Interval) Duration(format timeval.Format, now float64) timeval.Value {
	if iv.State == Inactive && iv.End != nil {
		return timeval.New(*iv.End-iv.Start, format)
	}
	return timeval.New(now-iv.Start, format)
}

func (iv *Interval) Equal(other *Interval) bool {
	if other == nil {
		return false
	}
	if iv.Start != other.Start || iv.State != other.State {
		return false
	}
	switch {
	case iv.End == nil && other.End == nil:
		return true
	case iv.End == nil || other.End == nil:
		return false
	default:
		return *iv.End == *other.End
	}
}

func (iv *Interval) clone() *Interval {
	c := *iv
	if iv.End != nil {
		end := *iv.End
		c.End = &end
	}
	return &c
}
