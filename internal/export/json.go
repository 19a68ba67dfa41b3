package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Intervals  []jsonEntry `json:"intervals"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Trackable   string `json:"trackable"`
	Kind        string `json:"kind,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

func ToJSON(rows []Row, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(rows),
	}

	for _, r := range rows {
		endStr := ""
		if r.End != nil {
			endStr = r.End.Local().Format(time.RFC3339)
		}

		export.Intervals = append(export.Intervals, jsonEntry{
			ID:          r.IntervalID,
			Trackable:   r.Trackable,
			Kind:        r.Kind,
			StartTime:   r.Start.Local().Format(time.RFC3339),
			EndTime:     endStr,
			DurationSec: r.DurationSeconds,
			Duration:    formatDuration(r.DurationSeconds),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
