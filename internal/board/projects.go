package board

import (
	"fmt"
	"slices"
	"time"

	"github.com/sadopc/planr/internal/store"
)

// ProjectDraft is the caller-supplied part of a new project.
type ProjectDraft struct {
	Name            string
	Description     string
	Status          store.ProjectStatus
	AssignedTo      []string
	DueDate         *time.Time
	Tags            []string
	Color           string
	RoleAssignments []store.ProjectRole
}

type ProjectStore struct {
	*deps
	projects []store.Project
	err      error
}

func newProjectStore(d *deps) *ProjectStore {
	s := &ProjectStore{deps: d}
	projects, err := store.Load[store.Project](d.kv, store.KindProjects)
	if err != nil {
		d.log.WithError(err).WithField("operation", "projects.load").Error("failed to load project data")
		s.err = err
		return s
	}
	s.projects = projects
	return s
}

func (s *ProjectStore) Err() error { return s.err }

func (s *ProjectStore) All() []store.Project {
	return cloneEach(s.projects)
}

func (s *ProjectStore) Get(id string) (store.Project, bool) {
	for _, p := range s.projects {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return store.Project{}, false
}

// Create adds a project owned by the session user.
func (s *ProjectStore) Create(sess Session, d ProjectDraft) (store.Project, error) {
	if err := loaded(s.err); err != nil {
		return store.Project{}, err
	}
	if !sess.Active() {
		return store.Project{}, ErrNoSession
	}
	status := d.Status
	if status == "" {
		status = store.ProjectActive
	}
	now := s.stamp()
	p := store.Project{
		ID:              s.newID(),
		Name:            d.Name,
		Description:     d.Description,
		Status:          status,
		CreatedBy:       sess.UserID(),
		AssignedTo:      d.AssignedTo,
		DueDate:         d.DueDate,
		Tags:            d.Tags,
		Color:           d.Color,
		RoleAssignments: d.RoleAssignments,
		CreatedAt:       now,
		UpdatedAt:       now,
	}.Clone()

	projects := append(slices.Clone(s.projects), p)
	if err := s.save(projects); err != nil {
		return store.Project{}, fmt.Errorf("create project: %w", err)
	}
	s.log.WithField("operation", "projects.Create").WithField("project", p.ID).Info("project created")
	return p.Clone(), nil
}

// Update replaces the project with the same id and stamps UpdatedAt.
func (s *ProjectStore) Update(p store.Project) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	i := slices.IndexFunc(s.projects, func(x store.Project) bool { return x.ID == p.ID })
	if i < 0 {
		return nil
	}
	p = p.Clone()
	p.UpdatedAt = s.stamp()
	projects := slices.Clone(s.projects)
	projects[i] = p
	if err := s.save(projects); err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes the project, then cascades to its tasks and their
// comments through the ProjectDeleted event.
func (s *ProjectStore) Delete(id string) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	projects := slices.DeleteFunc(slices.Clone(s.projects), func(p store.Project) bool { return p.ID == id })
	if len(projects) == len(s.projects) {
		return nil
	}
	if err := s.save(projects); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if err := s.bus.Publish(ProjectDeleted{ProjectID: id}); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// AssignRole gives userID a project-scoped role, replacing any role the
// user already had on that project.
func (s *ProjectStore) AssignRole(projectID, userID string, role store.ProjectRoleName, assignedBy string) error {
	if !slices.Contains(store.ProjectRoleNames, role) {
		return ErrInvalidRole
	}
	p, ok := s.Get(projectID)
	if !ok {
		return nil
	}
	roles := slices.DeleteFunc(slices.Clone(p.RoleAssignments), func(r store.ProjectRole) bool { return r.UserID == userID })
	p.RoleAssignments = append(roles, store.ProjectRole{
		UserID:     userID,
		Role:       role,
		AssignedAt: s.stamp(),
		AssignedBy: assignedBy,
	})
	return s.Update(p)
}

// RemoveRole drops userID's project-scoped role.
func (s *ProjectStore) RemoveRole(projectID, userID string) error {
	p, ok := s.Get(projectID)
	if !ok {
		return nil
	}
	roles := slices.DeleteFunc(slices.Clone(p.RoleAssignments), func(r store.ProjectRole) bool { return r.UserID == userID })
	if len(roles) == len(p.RoleAssignments) {
		return nil
	}
	p.RoleAssignments = roles
	return s.Update(p)
}

// RoleOf returns userID's project-scoped role.
func RoleOf(p store.Project, userID string) (store.ProjectRoleName, bool) {
	for _, r := range p.RoleAssignments {
		if r.UserID == userID {
			return r.Role, true
		}
	}
	return "", false
}

// ScopedView returns the projects visible to the session user.
func (s *ProjectStore) ScopedView(sess Session) []store.Project {
	return ScopeProjects(s.projects, sess.User)
}

// ScopeProjects restricts projects to those user created or is assigned to.
// Admins see everything; a nil user sees nothing.
func ScopeProjects(projects []store.Project, user *store.User) []store.Project {
	if user == nil {
		return nil
	}
	if user.Role == store.RoleAdmin {
		return cloneEach(projects)
	}
	var out []store.Project
	for _, p := range projects {
		if p.CreatedBy == user.ID || slices.Contains(p.AssignedTo, user.ID) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (s *ProjectStore) save(projects []store.Project) error {
	if err := store.Save(s.kv, store.KindProjects, projects); err != nil {
		s.log.WithError(err).WithField("operation", "projects.save").Error("failed to save projects")
		return err
	}
	s.projects = projects
	return nil
}
