package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/model"
)

func sampleData() ([]model.TimeEntry, map[model.ID]model.Task) {
	entries := []model.TimeEntry{
		{
			ID:          "1",
			TaskID:      "10",
			UserID:      "7",
			UserName:    "Ada",
			HoursSpent:  1,
			WorkDate:    model.NewDate(2024, 6, 10),
			Description: "worked on feature",
		},
		{
			ID:         "2",
			TaskID:     "11",
			UserID:     "7",
			HoursSpent: 0.5,
			WorkDate:   model.NewDate(2024, 6, 11),
		},
		{
			ID:         "3",
			TaskID:     "10",
			UserID:     "8",
			HoursSpent: 2.25,
			WorkDate:   model.NewDate(2024, 6, 12),
		},
	}

	tasks := map[model.ID]model.Task{
		"10": {ID: "10", Title: "Task Alpha"},
		"11": {ID: "11", Title: "Task Beta"},
	}

	return entries, tasks
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
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	entries, tasks := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	err := ToCSV(entries, tasks, path)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	header := records[0]
	expectedHeader := []string{"ID", "Task", "Date", "Hours", "Duration", "User", "Description"}
	for i, h := range expectedHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "1" || row[1] != "Task Alpha" || row[2] != "2024-06-10" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[3] != "1.00" {
		t.Fatalf("Hours = %q, want 1.00", row[3])
	}
	if row[4] != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", row[4])
	}
	if row[5] != "Ada" {
		t.Fatalf("User = %q, want Ada", row[5])
	}
	if row[6] != "worked on feature" {
		t.Fatalf("Description = %q, want 'worked on feature'", row[6])
	}

	// Falls back to the user id when no name was sent
	if records[2][5] != "7" {
		t.Fatalf("expected user id fallback, got %q", records[2][5])
	}
	if records[3][4] != "02:15:00" {
		t.Fatalf("Duration = %q, want 02:15:00", records[3][4])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVUnknownTask(t *testing.T) {
	entries := []model.TimeEntry{
		{ID: "1", TaskID: "999", HoursSpent: 1, WorkDate: model.NewDate(2024, 1, 1)},
	}
	path := filepath.Join(t.TempDir(), "unknown.csv")

	if err := ToCSV(entries, map[model.ID]model.Task{}, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); records[1][1] != "Unknown" {
		t.Fatalf("expected 'Unknown' for missing task, got %q", records[1][1])
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, nil, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	entries := []model.TimeEntry{
		{
			ID:          "1",
			TaskID:      "1",
			HoursSpent:  1,
			WorkDate:    model.NewDate(2024, 1, 1),
			Description: `notes with "quotes" and, commas`,
		},
	}
	tasks := map[model.ID]model.Task{
		"1": {ID: "1", Title: `Task "Special"`},
	}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(entries, tasks, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if records[1][1] != `Task "Special"` {
		t.Fatalf("task title mangled: %q", records[1][1])
	}
	if records[1][6] != `notes with "quotes" and, commas` {
		t.Fatalf("description mangled: %q", records[1][6])
	}
}

func TestRollupToCSV(t *testing.T) {
	entries, _ := sampleData()
	today := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	buckets := analytics.DailyRollup(entries, today, time.UTC, 3)
	path := filepath.Join(t.TempDir(), "rollup.csv")

	if err := RollupToCSV(buckets, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected header + 3 days, got %d rows", len(records))
	}
	want := [][]string{
		{"2024-06-10", "1.00", "1"},
		{"2024-06-11", "0.50", "1"},
		{"2024-06-12", "2.25", "1"},
	}
	for i, w := range want {
		got := records[i+1]
		if strings.Join(got, ",") != strings.Join(w, ",") {
			t.Fatalf("row %d = %v, want %v", i+1, got, w)
		}
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	entries, tasks := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	err := ToJSON(entries, tasks, nil, path)
	if err != nil {
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

	if result.Count != 3 || len(result.Entries) != 3 {
		t.Fatalf("count = %d entries = %d, want 3", result.Count, len(result.Entries))
	}
	if result.TotalHours != 3.75 {
		t.Fatalf("total_hours = %v, want 3.75", result.TotalHours)
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	e := result.Entries[0]
	if e.ID != "1" || e.TaskID != "10" || e.Task != "Task Alpha" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.WorkDate != "2024-06-10" || e.HoursSpent != 1 || e.Duration != "01:00:00" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if result.Daily != nil {
		t.Fatal("daily should be omitted when no rollup is given")
	}
}

func TestToJSONWithRollup(t *testing.T) {
	entries, tasks := sampleData()
	today := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	buckets := analytics.DailyRollup(entries, today, time.UTC, 7)
	path := filepath.Join(t.TempDir(), "rollup.json")

	if err := ToJSON(entries, tasks, buckets, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)
	if len(result.Daily) != 7 {
		t.Fatalf("expected 7 days, got %d", len(result.Daily))
	}
	if last := result.Daily[6]; last.Date != "2024-06-12" || last.Hours != 2.25 {
		t.Fatalf("unexpected last day %+v", last)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, nil, nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Entries != nil {
		t.Fatal("entries should be nil/null for empty export")
	}
}

func TestToJSONBadPath(t *testing.T) {
	err := ToJSON(nil, nil, nil, "/nonexistent/dir/file.json")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, nil, nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONValidTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(nil, nil, nil, path)

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "00:00:00"},
		{1.0 / 3600, "00:00:01"},
		{0.25, "00:15:00"},
		{1, "01:00:00"},
		{1.0 + 61.0/3600, "01:01:01"},
		{24, "24:00:00"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.hours)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}
