package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/planr/internal/store"
)

func sampleData() ([]store.Task, []store.Project, []store.User) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -2)
	end := now

	tasks := []store.Task{
		{
			ID:          "t1",
			Title:       "Design homepage",
			Description: "hero and nav",
			Status:      store.StatusInProgress,
			Priority:    store.PriorityHigh,
			AssignedTo:  []string{"1", "2"},
			ProjectID:   "p1",
			StartDate:   &start,
			EndDate:     &end,
			Tags:        []string{"ui", "web"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:        "t2",
			Title:     "Buy milk",
			Status:    store.StatusTodo,
			Priority:  store.PriorityLow,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:         "t3",
			Title:      "Ghost",
			Status:     store.StatusTodo,
			Priority:   store.PriorityMedium,
			AssignedTo: []string{"99"},
			ProjectID:  "gone",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}

	projects := []store.Project{
		{ID: "p1", Name: "Website Redesign"},
		{ID: "p2", Name: "Mobile App"},
	}
	users := []store.User{
		{ID: "1", Name: "Alex Johnson"},
		{ID: "2", Name: "Sarah Wilson"},
	}
	return tasks, projects, users
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
		t.Fatalf("invalid CSV: %v", err)
	}
	return records
}

func readJSON(t *testing.T, path string) jsonExport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return result
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	tasks, projects, users := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(tasks, projects, users, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "t1" || row[1] != "Design homepage" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[2] != "in-progress" || row[3] != "high" {
		t.Fatalf("status/priority = %q/%q", row[2], row[3])
	}
	if row[4] != "Website Redesign" {
		t.Fatalf("Project = %q", row[4])
	}
	if row[5] != "Alex Johnson; Sarah Wilson" {
		t.Fatalf("Assignees = %q", row[5])
	}
	if row[6] != "ui; web" {
		t.Fatalf("Tags = %q", row[6])
	}
	if row[9] != "3" {
		t.Fatalf("Days = %q, want 3", row[9])
	}

	// Standalone task: no project, no dates.
	standalone := records[2]
	if standalone[4] != "" || standalone[7] != "" || standalone[9] != "" {
		t.Fatalf("unexpected standalone row %v", standalone)
	}
}

func TestToCSVUnknownReferences(t *testing.T) {
	tasks, projects, users := sampleData()
	path := filepath.Join(t.TempDir(), "unknown.csv")

	if err := ToCSV(tasks, projects, users, path); err != nil {
		t.Fatal(err)
	}
	row := readCSV(t, path)[3]
	if row[4] != "Unknown" {
		t.Fatalf("expected 'Unknown' for missing project, got %q", row[4])
	}
	if row[5] != "99" {
		t.Fatalf("missing user should fall back to id, got %q", row[5])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, nil, nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	now := time.Now()
	tasks := []store.Task{{
		ID:          "1",
		Title:       `Fix "login", again`,
		Description: "line one\nline two",
		ProjectID:   "p",
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
	projects := []store.Project{{ID: "p", Name: `Project "Special"`}}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(tasks, projects, nil, path); err != nil {
		t.Fatal(err)
	}
	row := readCSV(t, path)[1]
	if row[1] != `Fix "login", again` {
		t.Fatalf("title mangled: %q", row[1])
	}
	if row[4] != `Project "Special"` {
		t.Fatalf("project name mangled: %q", row[4])
	}
	if row[13] != "line one\nline two" {
		t.Fatalf("description mangled: %q", row[13])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	tasks, projects, users := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(tasks, projects, users, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	result := readJSON(t, path)

	if result.Count != 3 || len(result.Tasks) != 3 {
		t.Fatalf("count = %d, tasks = %d, want 3", result.Count, len(result.Tasks))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	e := result.Tasks[0]
	if e.ID != "t1" || e.Project != "Website Redesign" || e.ProjectID != "p1" {
		t.Fatalf("unexpected task %+v", e)
	}
	if strings.Join(e.Assignees, ",") != "Alex Johnson,Sarah Wilson" {
		t.Fatalf("Assignees = %v", e.Assignees)
	}
	if e.Days != 3 {
		t.Fatalf("Days = %d, want 3", e.Days)
	}

	standalone := result.Tasks[1]
	if standalone.Project != "" || standalone.StartDate != "" || standalone.Days != 0 {
		t.Fatalf("unexpected standalone task %+v", standalone)
	}
	if result.Tasks[2].Project != "Unknown" {
		t.Fatalf("expected 'Unknown', got %q", result.Tasks[2].Project)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, nil, nil, path); err != nil {
		t.Fatal(err)
	}
	result := readJSON(t, path)
	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Tasks != nil {
		t.Fatal("tasks should be nil/null for empty export")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, nil, "/nonexistent/dir/file.json"); err == nil {
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

func TestToJSONValidTimestamps(t *testing.T) {
	tasks, projects, users := sampleData()
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(tasks, projects, users, path)
	result := readJSON(t, path)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, e := range result.Tasks {
		if _, err := time.Parse(time.RFC3339, e.CreatedAt); err != nil {
			t.Fatalf("created_at is not valid RFC3339: %q", e.CreatedAt)
		}
	}
}

// ============================================================
// helpers
// ============================================================

func TestSpanDays(t *testing.T) {
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same day", start, 1},
		{"three days", start.AddDate(0, 0, 2), 3},
		{"partial day", start.Add(30 * time.Hour), 3},
	}
	for _, tt := range tests {
		end := tt.end
		got := spanDays(store.Task{StartDate: &start, EndDate: &end})
		if got != tt.want {
			t.Errorf("%s: spanDays = %d, want %d", tt.name, got, tt.want)
		}
	}
	if spanDays(store.Task{StartDate: &start}) != 0 {
		t.Error("open-ended task should span 0 days")
	}
}
