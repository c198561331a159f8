package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/planr/internal/store"
)

var csvHeader = []string{
	"ID", "Title", "Status", "Priority", "Project", "Assignees", "Tags",
	"Start", "End", "Days", "Due", "Created", "Updated", "Description",
}

func ToCSV(tasks []store.Task, projects []store.Project, users []store.User, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	n := newNames(projects, users)
	for _, t := range tasks {
		row := []string{
			t.ID,
			t.Title,
			string(t.Status),
			string(t.Priority),
			n.project(t.ProjectID),
			joinList(n.assignees(t.AssignedTo)),
			joinList(t.Tags),
			formatTime(t.StartDate),
			formatTime(t.EndDate),
			formatSpan(spanDays(t)),
			formatTime(t.DueDate),
			formatTime(&t.CreatedAt),
			formatTime(&t.UpdatedAt),
			t.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
