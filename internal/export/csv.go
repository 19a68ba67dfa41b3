package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

func ToCSV(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Interval", "Trackable", "Kind", "Start", "End", "Duration (s)", "Duration"}); err != nil {
		return err
	}

	for _, r := range rows {
		endStr := ""
		if r.End != nil {
			endStr = r.End.Local().Format(time.RFC3339)
		}
		record := []string{
			r.IntervalID,
			r.Trackable,
			r.Kind,
			r.Start.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", r.DurationSeconds),
			formatDuration(r.DurationSeconds),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
