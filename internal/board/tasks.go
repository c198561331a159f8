package board

import (
	"fmt"
	"slices"
	"time"

	"github.com/sadopc/planr/internal/store"
)

// TaskDraft is the caller-supplied part of a new task. Zero Status and
// Priority default to todo and medium.
type TaskDraft struct {
	Title       string
	Description string
	Status      store.TaskStatus
	Priority    store.Priority
	AssignedTo  []string
	DueDate     *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	Tags        []string
	ProjectID   string
}

// TaskStore owns tasks and the comments attached to them.
type TaskStore struct {
	*deps
	tasks    []store.Task
	comments []store.Comment
	err      error
}

func newTaskStore(d *deps) *TaskStore {
	s := &TaskStore{deps: d}
	tasks, err := store.Load[store.Task](d.kv, store.KindTasks)
	if err != nil {
		d.log.WithError(err).WithField("operation", "tasks.load").Error("failed to load task data")
		s.err = err
		return s
	}
	comments, err := store.Load[store.Comment](d.kv, store.KindComments)
	if err != nil {
		d.log.WithError(err).WithField("operation", "tasks.load").Error("failed to load comment data")
		s.err = err
		return s
	}
	s.tasks = tasks
	s.comments = comments
	return s
}

func (s *TaskStore) Err() error { return s.err }

func (s *TaskStore) All() []store.Task {
	return cloneEach(s.tasks)
}

func (s *TaskStore) Get(id string) (store.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return store.Task{}, false
}

// ForProject returns the tasks of one project in insertion order.
func (s *TaskStore) ForProject(projectID string) []store.Task {
	var out []store.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// FilteredView applies f to the current tasks. The store is not modified.
func (s *TaskStore) FilteredView(f FilterState) []store.Task {
	return FilterTasks(s.tasks, f)
}

// Create appends a task authored by the session user and publishes
// TaskCreated.
func (s *TaskStore) Create(sess Session, d TaskDraft) (store.Task, error) {
	if err := loaded(s.err); err != nil {
		return store.Task{}, err
	}
	if !sess.Active() {
		return store.Task{}, ErrNoSession
	}
	status := d.Status
	if status == "" {
		status = store.StatusTodo
	}
	priority := d.Priority
	if priority == "" {
		priority = store.PriorityMedium
	}
	now := s.stamp()
	t := store.Task{
		ID:          s.newID(),
		Title:       d.Title,
		Description: d.Description,
		Status:      status,
		Priority:    priority,
		AssignedTo:  d.AssignedTo,
		CreatedBy:   sess.UserID(),
		DueDate:     d.DueDate,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Tags:        d.Tags,
		ProjectID:   d.ProjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}.Clone()

	tasks := append(slices.Clone(s.tasks), t)
	if err := s.saveTasks(tasks); err != nil {
		return store.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.log.WithField("operation", "tasks.Create").WithField("task", t.ID).Info("task created")

	// Handler failures are logged by the bus; the task itself is stored.
	s.bus.Publish(TaskCreated{Task: t.Clone(), Actor: sess})
	return t.Clone(), nil
}

// Update replaces the task with the same id, stamps UpdatedAt and publishes
// TaskUpdated with the editing session.
func (s *TaskStore) Update(sess Session, t store.Task) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	i := slices.IndexFunc(s.tasks, func(x store.Task) bool { return x.ID == t.ID })
	if i < 0 {
		return nil
	}
	t = t.Clone()
	t.UpdatedAt = s.stamp()
	tasks := slices.Clone(s.tasks)
	tasks[i] = t
	if err := s.saveTasks(tasks); err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	s.bus.Publish(TaskUpdated{Task: t.Clone(), Editor: sess})
	return nil
}

// SetStatus updates only the status of a task.
func (s *TaskStore) SetStatus(sess Session, id string, status store.TaskStatus) error {
	t, ok := s.Get(id)
	if !ok {
		return nil
	}
	t.Status = status
	return s.Update(sess, t)
}

// Delete removes a task and every comment on it. Nobody is notified.
func (s *TaskStore) Delete(id string) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	if _, ok := s.Get(id); !ok {
		return nil
	}
	n, err := s.remove(func(t store.Task) bool { return t.ID == id })
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	s.bus.Publish(TaskDeleted{TaskID: id, Comments: n})
	return nil
}

// AddComment appends a comment and publishes CommentAdded. A comment on an
// unknown task is stored but publishes nothing.
func (s *TaskStore) AddComment(taskID, authorID, content string) (store.Comment, error) {
	if err := loaded(s.err); err != nil {
		return store.Comment{}, err
	}
	c := store.Comment{
		ID:        s.newID(),
		TaskID:    taskID,
		UserID:    authorID,
		Content:   content,
		CreatedAt: s.stamp(),
	}
	comments := append(slices.Clone(s.comments), c)
	if err := s.saveComments(comments); err != nil {
		return store.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	if t, ok := s.Get(taskID); ok {
		s.bus.Publish(CommentAdded{Task: t, Comment: c})
	}
	return c, nil
}

// CommentsFor returns the comments of a task in insertion order.
func (s *TaskStore) CommentsFor(taskID string) []store.Comment {
	var out []store.Comment
	for _, c := range s.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out
}

func (s *TaskStore) handle(ev Event) error {
	e, ok := ev.(ProjectDeleted)
	if !ok {
		return nil
	}
	if err := loaded(s.err); err != nil {
		return fmt.Errorf("cascade project %s: %w", e.ProjectID, err)
	}
	n, err := s.remove(func(t store.Task) bool { return t.ProjectID == e.ProjectID })
	if err != nil {
		return fmt.Errorf("cascade project %s: %w", e.ProjectID, err)
	}
	s.log.WithField("operation", "tasks.cascade").
		WithField("project", e.ProjectID).
		WithField("comments", n).
		Info("removed project tasks")
	return nil
}

// remove drops the matching tasks and their comments, returning the number
// of comments removed. Comments go first so a failed task write never leaves
// orphaned comments behind.
func (s *TaskStore) remove(match func(store.Task) bool) (int, error) {
	doomed := make(map[string]bool)
	for _, t := range s.tasks {
		if match(t) {
			doomed[t.ID] = true
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	comments := slices.DeleteFunc(slices.Clone(s.comments), func(c store.Comment) bool { return doomed[c.TaskID] })
	removed := len(s.comments) - len(comments)
	if removed > 0 {
		if err := s.saveComments(comments); err != nil {
			return 0, err
		}
	}
	tasks := slices.DeleteFunc(slices.Clone(s.tasks), func(t store.Task) bool { return doomed[t.ID] })
	if err := s.saveTasks(tasks); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *TaskStore) saveTasks(tasks []store.Task) error {
	if err := store.Save(s.kv, store.KindTasks, tasks); err != nil {
		s.log.WithError(err).WithField("operation", "tasks.save").Error("failed to save tasks")
		return err
	}
	s.tasks = tasks
	return nil
}

func (s *TaskStore) saveComments(comments []store.Comment) error {
	if err := store.Save(s.kv, store.KindComments, comments); err != nil {
		s.log.WithError(err).WithField("operation", "comments.save").Error("failed to save comments")
		return err
	}
	s.comments = comments
	return nil
}
