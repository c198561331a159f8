package store

import (
	"slices"
	"time"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// ProjectRoleName is a project-scoped sub-role, unrelated to UserRole.
type ProjectRoleName string

const (
	ProjectRoleDeveloper ProjectRoleName = "developer"
	ProjectRolePM        ProjectRoleName = "pm"
	ProjectRoleAnalyst   ProjectRoleName = "analyst"
	ProjectRoleDevOps    ProjectRoleName = "devops"
	ProjectRoleDesigner  ProjectRoleName = "designer"
	ProjectRoleQA        ProjectRoleName = "qa"
	ProjectRoleAdmin     ProjectRoleName = "admin"
)

var ProjectRoleNames = []ProjectRoleName{
	ProjectRoleDeveloper, ProjectRolePM, ProjectRoleAnalyst, ProjectRoleDevOps,
	ProjectRoleDesigner, ProjectRoleQA, ProjectRoleAdmin,
}

type ProjectRole struct {
	UserID     string          `json:"userId"`
	Role       ProjectRoleName `json:"role"`
	AssignedAt time.Time       `json:"assignedAt"`
	AssignedBy string          `json:"assignedBy"`
}

type Project struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Status          ProjectStatus `json:"status"`
	CreatedBy       string        `json:"createdBy"`
	AssignedTo      []string      `json:"assignedTo"`
	DueDate         *time.Time    `json:"dueDate,omitempty"`
	Tags            []string      `json:"tags"`
	Color           string        `json:"color,omitempty"`
	RoleAssignments []ProjectRole `json:"roleAssignments,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Clone returns a copy of p that shares no memory with it.
func (p Project) Clone() Project {
	p.AssignedTo = slices.Clone(p.AssignedTo)
	p.Tags = slices.Clone(p.Tags)
	p.RoleAssignments = slices.Clone(p.RoleAssignments)
	p.DueDate = cloneTime(p.DueDate)
	return p
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusCompleted, StatusCancelled}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Rank orders priorities low < medium < high. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	AssignedTo  []string   `json:"assignedTo"`
	CreatedBy   string     `json:"createdBy"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Tags        []string   `json:"tags"`
	ProjectID   string     `json:"projectId,omitempty"` // empty for standalone tasks
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a copy of t that shares no memory with it.
func (t Task) Clone() Task {
	t.AssignedTo = slices.Clone(t.AssignedTo)
	t.Tags = slices.Clone(t.Tags)
	t.DueDate = cloneTime(t.DueDate)
	t.StartDate = cloneTime(t.StartDate)
	t.EndDate = cloneTime(t.EndDate)
	return t
}

// IsAssigned reports whether userID is among the task's assignees.
func (t Task) IsAssigned(userID string) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationType string

const (
	NotifyTaskAssigned  NotificationType = "task_assigned"
	NotifyTaskCompleted NotificationType = "task_completed"
	NotifyTaskUpdated   NotificationType = "task_updated"
	NotifyCommentAdded  NotificationType = "comment_added"
)

type NotificationData struct {
	TaskID    string `json:"taskId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
}

type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      NotificationType  `json:"type"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
	Data      *NotificationData `json:"data,omitempty"`
}

func (n Notification) Clone() Notification {
	if n.Data != nil {
		d := *n.Data
		n.Data = &d
	}
	return n
}

// RoleDefinition is a named permission bundle. Permissions are descriptive
// and never enforced.
type RoleDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r RoleDefinition) Clone() RoleDefinition {
	r.Permissions = slices.Clone(r.Permissions)
	return r
}

type Setting struct {
	Key   string
	Value string
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
