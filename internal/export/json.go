package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/planr/internal/store"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	ProjectID   string   `json:"project_id,omitempty"`
	Project     string   `json:"project,omitempty"`
	Assignees   []string `json:"assignees"`
	Tags        []string `json:"tags,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Days        int      `json:"days,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func ToJSON(tasks []store.Task, projects []store.Project, users []store.User, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(tasks),
	}

	n := newNames(projects, users)
	for _, t := range tasks {
		export.Tasks = append(export.Tasks, jsonTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      string(t.Status),
			Priority:    string(t.Priority),
			ProjectID:   t.ProjectID,
			Project:     n.project(t.ProjectID),
			Assignees:   n.assignees(t.AssignedTo),
			Tags:        t.Tags,
			StartDate:   formatTime(t.StartDate),
			EndDate:     formatTime(t.EndDate),
			Days:        spanDays(t),
			DueDate:     formatTime(t.DueDate),
			CreatedAt:   formatTime(&t.CreatedAt),
			UpdatedAt:   formatTime(&t.UpdatedAt),
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
