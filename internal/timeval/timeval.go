package timeval

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Format selects how a Value distributes its seconds across units.
type Format int

const (
	HMS Format = iota
	MS
	S
)

func (f Format) String() string {
	switch f {
	case MS:
		return "MS"
	case S:
		return "S"
	default:
		return "HMS"
	}
}

func (f Format) hasHours() bool { return f == HMS }
func (f Format) hasMins() bool  { return f == HMS || f == MS }

// ErrInvalidUnit is returned when a unit is requested that the format does not carry.
var ErrInvalidUnit = errors.New("invalid time unit for format")

// Parts is the {hours, mins, seconds} shape used on the wire.
type Parts struct {
	Hours   float64 `json:"hours" yaml:"hours"`
	Mins    float64 `json:"mins" yaml:"mins"`
	Seconds float64 `json:"seconds" yaml:"seconds"`
}

// Value is an immutable non-negative duration kept as total seconds.
type Value struct {
	total  float64
	format Format
}

// Zero returns an empty value in the given format.
func Zero(format Format) Value {
	return Value{format: format}
}

// New builds a value from total seconds. Negative or non-finite input becomes zero.
func New(totalSeconds float64, format Format) Value {
	return Value{total: sanitize(totalSeconds), format: format}
}

// FromDuration converts a time.Duration.
func FromDuration(d time.Duration, format Format) Value {
	return New(d.Seconds(), format)
}

// FromParts sums sanitized parts into a single value.
func FromParts(p Parts, format Format) Value {
	total := sanitize(p.Seconds) + sanitize(p.Mins)*60 + sanitize(p.Hours)*3600
	return New(total, format)
}

// Add sums two values in total-seconds space.
func Add(a, b Value, format Format) Value {
	return New(a.total+b.total, format)
}

// Sum adds any number of values.
func Sum(format Format, values ...Value) Value {
	var total float64
	for _, v := range values {
		total += v.total
	}
	return New(total, format)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func (v Value) Format() Format { return v.format }

func (v Value) TotalSeconds() float64 { return v.total }

func (v Value) Duration() time.Duration {
	return time.Duration(v.total * float64(time.Second))
}

// In returns the same total redistributed into another format.
func (v Value) In(format Format) Value {
	return Value{total: v.total, format: format}
}

// Parts distributes the total across the units of the value's format.
// HMS and MS floor every unit; S keeps fractional seconds.
func (v Value) Parts() Parts {
	switch v.format {
	case S:
		return Parts{Seconds: v.total}
	case MS:
		mins := math.Floor(v.total / 60)
		return Parts{Mins: mins, Seconds: math.Floor(v.total - mins*60)}
	default:
		hours := math.Floor(v.total / 3600)
		mins := math.Floor((v.total - hours*3600) / 60)
		return Parts{Hours: hours, Mins: mins, Seconds: math.Floor(v.total - hours*3600 - mins*60)}
	}
}

func (v Value) Hours() (float64, error) {
	if !v.format.hasHours() {
		return 0, fmt.Errorf("hours of %s value: %w", v.format, ErrInvalidUnit)
	}
	return v.Parts().Hours, nil
}

func (v Value) Mins() (float64, error) {
	if !v.format.hasMins() {
		return 0, fmt.Errorf("minutes of %s value: %w", v.format, ErrInvalidUnit)
	}
	return v.Parts().Mins, nil
}

func (v Value) Seconds() float64 {
	return v.Parts().Seconds
}

// String renders HH:MM:SS regardless of format.
func (v Value) String() string {
	secs := int64(v.total)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
