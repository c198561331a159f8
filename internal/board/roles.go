package board

import (
	"fmt"
	"slices"

	"github.com/sadopc/planr/internal/store"
)

type RoleDraft struct {
	Name        string
	Description string
	Color       string
	Permissions []string
}

// RoleStore keeps named permission bundles. Permissions are labels only.
type RoleStore struct {
	*deps
	roles []store.RoleDefinition
	err   error
}

func newRoleStore(d *deps) *RoleStore {
	s := &RoleStore{deps: d}
	roles, err := store.Load[store.RoleDefinition](d.kv, store.KindRoles)
	if err != nil {
		d.log.WithError(err).WithField("operation", "roles.load").Error("failed to load roles")
		s.err = err
		return s
	}
	s.roles = roles
	return s
}

func (s *RoleStore) Err() error { return s.err }

func (s *RoleStore) All() []store.RoleDefinition {
	return cloneEach(s.roles)
}

func (s *RoleStore) Get(id string) (store.RoleDefinition, bool) {
	for _, r := range s.roles {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return store.RoleDefinition{}, false
}

func (s *RoleStore) Create(d RoleDraft) (store.RoleDefinition, error) {
	if err := loaded(s.err); err != nil {
		return store.RoleDefinition{}, err
	}
	now := s.stamp()
	r := store.RoleDefinition{
		ID:          s.newID(),
		Name:        d.Name,
		Description: d.Description,
		Color:       d.Color,
		Permissions: slices.Clone(d.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.save(append(slices.Clone(s.roles), r)); err != nil {
		return store.RoleDefinition{}, fmt.Errorf("create role: %w", err)
	}
	return r.Clone(), nil
}

func (s *RoleStore) Update(r store.RoleDefinition) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	i := slices.IndexFunc(s.roles, func(x store.RoleDefinition) bool { return x.ID == r.ID })
	if i < 0 {
		return nil
	}
	r = r.Clone()
	r.UpdatedAt = s.stamp()
	roles := slices.Clone(s.roles)
	roles[i] = r
	if err := s.save(roles); err != nil {
		return fmt.Errorf("update role %s: %w", r.ID, err)
	}
	return nil
}

func (s *RoleStore) Delete(id string) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	roles := slices.DeleteFunc(slices.Clone(s.roles), func(r store.RoleDefinition) bool { return r.ID == id })
	if len(roles) == len(s.roles) {
		return nil
	}
	if err := s.save(roles); err != nil {
		return fmt.Errorf("delete role %s: %w", id, err)
	}
	return nil
}

func (s *RoleStore) save(roles []store.RoleDefinition) error {
	if err := store.Save(s.kv, store.KindRoles, roles); err != nil {
		s.log.WithError(err).WithField("operation", "roles.save").Error("failed to save roles")
		return err
	}
	s.roles = roles
	return nil
}
