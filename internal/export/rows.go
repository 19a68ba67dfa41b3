package export

import (
	"math"
	"time"

	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
)

// Row is one tracking interval flattened for export.
type Row struct {
	IntervalID      string
	Trackable       string
	Kind            string
	Start           time.Time
	End             *time.Time // nil while running
	DurationSeconds int64
}

// Rows flattens every indexed interval, ordered by start, naming the
// trackable that recorded it. Running intervals count up to the store clock.
func Rows(st *store.Store) []Row {
	now := st.Now()
	var rows []Row
	for _, iv := range st.Intervals() {
		name, kind := "Unknown", ""
		if owner, ok := st.IntervalOwner(iv.ID); ok {
			if t := st.Get(owner); t != nil {
				name, kind = t.Name(), t.Kind().String()
			}
		}
		row := Row{
			IntervalID:      iv.ID,
			Trackable:       name,
			Kind:            kind,
			Start:           epoch(iv.Start),
			DurationSeconds: int64(math.Floor(iv.Duration(timeval.S, now).TotalSeconds())),
		}
		if iv.State == store.Inactive && iv.End != nil {
			end := epoch(*iv.End)
			row.End = &end
		}
		rows = append(rows, row)
	}
	return rows
}

func epoch(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func formatDuration(secs int64) string {
	return timeval.New(float64(secs), timeval.HMS).String()
}
