package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/actra/internal/store"
)

func sampleRows() []Row {
	now := time.Now().UTC().Truncate(time.Second)
	end := now

	return []Row{
		{
			IntervalID:      "iv-1",
			Trackable:       "Coding",
			Kind:            "activity",
			Start:           now.Add(-1 * time.Hour),
			End:             &end,
			DurationSeconds: 3600,
		},
		{
			IntervalID:      "iv-2",
			Trackable:       "Work",
			Kind:            "project",
			Start:           now.Add(-30 * time.Minute),
			End:             &end,
			DurationSeconds: 1800,
		},
		{
			IntervalID:      "iv-3",
			Trackable:       "Coding",
			Kind:            "activity",
			Start:           now.Add(-10 * time.Minute),
			End:             nil, // still running
			DurationSeconds: 600,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

// ============================================================
// Rows
// ============================================================

func TestRowsFromStore(t *testing.T) {
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	st := store.New(store.WithClock(func() time.Time { return clock }))
	a := store.NewActivity("Coding", store.Color{})
	p := store.NewProject("Work", store.Color{})
	if err := st.Put(a); err != nil {
		t.Fatal(err)
	}
	if err := st.Put(p); err != nil {
		t.Fatal(err)
	}
	st.AddMember(p.ID(), a.ID())

	st.StartTracking(a.ID())
	clock = clock.Add(90 * time.Second)
	st.StopTracking(a.ID())
	st.StartTracking(a.ID())
	clock = clock.Add(30 * time.Second)

	rows := Rows(st)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}

	var closed, running int
	for _, r := range rows {
		if r.End == nil {
			running++
			if r.DurationSeconds != 30 {
				t.Fatalf("running duration = %d, want 30", r.DurationSeconds)
			}
			continue
		}
		closed++
		if r.DurationSeconds != 90 {
			t.Fatalf("closed duration = %d, want 90", r.DurationSeconds)
		}
		if !r.End.Equal(r.Start.Add(90 * time.Second)) {
			t.Fatalf("end = %v, start = %v", r.End, r.Start)
		}
	}
	if closed != 2 || running != 2 {
		t.Fatalf("closed = %d running = %d, want 2 and 2", closed, running)
	}
	if rows[0].Start.After(rows[len(rows)-1].Start) {
		t.Fatal("rows should be ordered by start")
	}
}

func TestRowsUnknownOwner(t *testing.T) {
	st := store.New()
	a := store.NewActivity("gone", store.Color{})
	if err := st.Put(a); err != nil {
		t.Fatal(err)
	}
	st.StartTracking(a.ID())
	st.StopTracking(a.ID())
	st.Delete(a.ID(), false)

	rows := Rows(st)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Trackable != "Unknown" || rows[0].Kind != "" {
		t.Fatalf("expected Unknown owner, got %+v", rows[0])
	}
}

func TestRowsEmptyStore(t *testing.T) {
	if rows := Rows(store.New()); len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	err := ToCSV(sampleRows(), path)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	header := records[0]
	expectedHeader := []string{"Interval", "Trackable", "Kind", "Start", "End", "Duration (s)", "Duration"}
	for i, h := range expectedHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "iv-1" {
		t.Fatalf("Interval = %q, want iv-1", row[0])
	}
	if row[1] != "Coding" {
		t.Fatalf("Trackable = %q, want Coding", row[1])
	}
	if row[2] != "activity" {
		t.Fatalf("Kind = %q, want activity", row[2])
	}
	if row[5] != "3600" {
		t.Fatalf("Duration (s) = %q, want 3600", row[5])
	}
	if row[6] != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", row[6])
	}

	// Running interval has empty end time
	runningRow := records[3]
	if runningRow[4] != "" {
		t.Fatalf("running interval should have empty end time, got %q", runningRow[4])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	now := time.Now()
	rows := []Row{
		{
			IntervalID:      "iv",
			Trackable:       `Trackable "Special", really`,
			Start:           now,
			End:             &now,
			DurationSeconds: 60,
		},
	}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(rows, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if records[1][1] != `Trackable "Special", really` {
		t.Fatalf("trackable name mangled: %q", records[1][1])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sampleRows(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 {
		t.Fatalf("count = %d, want 3", result.Count)
	}
	if len(result.Intervals) != 3 {
		t.Fatalf("intervals = %d, want 3", len(result.Intervals))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	e := result.Intervals[0]
	if e.ID != "iv-1" {
		t.Fatalf("ID = %q, want iv-1", e.ID)
	}
	if e.Trackable != "Coding" {
		t.Fatalf("Trackable = %q, want Coding", e.Trackable)
	}
	if e.DurationSec != 3600 {
		t.Fatalf("DurationSec = %d, want 3600", e.DurationSec)
	}
	if e.Duration != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", e.Duration)
	}

	running := result.Intervals[2]
	if running.EndTime != "" {
		t.Fatalf("running interval end_time should be empty, got %q", running.EndTime)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Intervals != nil {
		t.Fatal("intervals should be nil/null for empty export")
	}
}

func TestToJSONBadPath(t *testing.T) {
	err := ToJSON(nil, "/nonexistent/dir/file.json")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(sampleRows(), path)

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, e := range result.Intervals {
		if _, err := time.Parse(time.RFC3339, e.StartTime); err != nil {
			t.Fatalf("start_time is not valid RFC3339: %q", e.StartTime)
		}
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
		{90061, "25:01:01"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
