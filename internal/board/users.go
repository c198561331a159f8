package board

import (
	"fmt"
	"slices"

	"github.com/sadopc/planr/internal/store"
)

// UserDraft is the caller-supplied part of a new user.
type UserDraft struct {
	Name   string
	Email  string
	Avatar string
	Role   store.UserRole
}

type UserStore struct {
	*deps
	users  []store.User
	active *store.User
	err    error
}

func newUserStore(d *deps) *UserStore {
	s := &UserStore{deps: d}
	users, err := store.Load[store.User](d.kv, store.KindUsers)
	if err != nil {
		d.log.WithError(err).WithField("operation", "users.load").Error("failed to load user data")
		s.err = err
		return s
	}
	s.users = users

	active, err := store.LoadActiveUser(d.kv)
	if err != nil {
		d.log.WithError(err).WithField("operation", "users.load").Error("failed to load active user")
		s.err = err
		return s
	}
	s.active = active
	return s
}

// Err reports the load failure, if any.
func (s *UserStore) Err() error { return s.err }

func (s *UserStore) All() []store.User {
	return slices.Clone(s.users)
}

func (s *UserStore) Get(id string) (store.User, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return store.User{}, false
}

func (s *UserStore) ByEmail(email string) (store.User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return store.User{}, false
}

// Current returns the persisted active user as a Session.
func (s *UserStore) Current() Session {
	if s.active == nil {
		return Session{}
	}
	u := *s.active
	return Session{User: &u}
}

// Login makes the user with the given email the active user. The password
// is not checked.
func (s *UserStore) Login(email, password string) (Session, error) {
	log := s.log.WithField("operation", "users.Login")

	u, ok := s.ByEmail(email)
	if !ok {
		log.WithField("email", email).Info("login with unknown email")
		return Session{}, ErrUnknownEmail
	}
	if err := s.setActive(&u); err != nil {
		log.WithError(err).Error("failed to persist active user")
		return Session{}, fmt.Errorf("login: %w", err)
	}
	log.WithField("user", u.ID).Info("logged in")
	return s.Current(), nil
}

func (s *UserStore) Logout() error {
	if err := s.setActive(nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Register appends a new user. Registration fails with ErrDuplicateEmail
// when the email is taken, leaving the collection unchanged.
func (s *UserStore) Register(d UserDraft) (store.User, error) {
	log := s.log.WithField("operation", "users.Register")
	if err := loaded(s.err); err != nil {
		return store.User{}, err
	}

	if _, taken := s.ByEmail(d.Email); taken {
		log.WithField("email", d.Email).Info("email already registered")
		return store.User{}, ErrDuplicateEmail
	}
	role := d.Role
	if role == "" {
		role = store.RoleUser
	}
	u := store.User{
		ID:        s.newID(),
		Name:      d.Name,
		Email:     d.Email,
		Avatar:    d.Avatar,
		Role:      role,
		CreatedAt: s.stamp(),
	}

	users := append(slices.Clone(s.users), u)
	if err := store.Save(s.kv, store.KindUsers, users); err != nil {
		log.WithError(err).Error("failed to save users")
		return store.User{}, fmt.Errorf("register: %w", err)
	}
	s.users = users
	return u, nil
}

// Update replaces the user with the same id. When it is the active user the
// active pointer is refreshed too.
func (s *UserStore) Update(u store.User) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	i := slices.IndexFunc(s.users, func(x store.User) bool { return x.ID == u.ID })
	if i < 0 {
		return nil
	}
	users := slices.Clone(s.users)
	users[i] = u
	if err := store.Save(s.kv, store.KindUsers, users); err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	s.users = users

	if s.active != nil && s.active.ID == u.ID {
		if err := s.setActive(&u); err != nil {
			return fmt.Errorf("update user %s: %w", u.ID, err)
		}
	}
	return nil
}

// Delete removes a user. Deleting the active user also logs out.
func (s *UserStore) Delete(id string) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	users := slices.DeleteFunc(slices.Clone(s.users), func(u store.User) bool { return u.ID == id })
	if len(users) == len(s.users) {
		return nil
	}
	if err := store.Save(s.kv, store.KindUsers, users); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.users = users

	if s.active != nil && s.active.ID == id {
		return s.Logout()
	}
	return nil
}

func (s *UserStore) setActive(u *store.User) error {
	if err := store.SaveActiveUser(s.kv, u); err != nil {
		return err
	}
	if u == nil {
		s.active = nil
	} else {
		cp := *u
		s.active = &cp
	}
	s.bus.Publish(SessionChanged{Session: s.Current()})
	return nil
}
