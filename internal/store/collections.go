package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Kind is the storage key of one entity collection.
type Kind string

const (
	KindUsers         Kind = "users"
	KindTasks         Kind = "tasks"
	KindComments      Kind = "comments"
	KindNotifications Kind = "notifications"
	KindActiveUser    Kind = "active-user"
	KindProjects      Kind = "projects"
	KindRoles         Kind = "roles"
)

//go:embed seed/*.json
var seedFS embed.FS

// Load returns the stored collection for kind. A missing row yields the
// seed dataset; a row that no longer decodes is logged and also replaced by
// the seed. Only database failures are returned as errors.
func Load[T any](s *Store, kind Kind) ([]T, error) {
	raw, ok, err := s.get(kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	if !ok {
		return Seed[T](kind)
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("stored collection is corrupt, using seed data")
		return Seed[T](kind)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// Save replaces the stored collection for kind.
func Save[T any](s *Store, kind Kind, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if err := s.put(kind, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	return nil
}

// Seed decodes the embedded first-run dataset for kind. Kinds without a
// seed file (comments, notifications) start empty.
func Seed[T any](kind Kind) ([]T, error) {
	data, err := seedFS.ReadFile("seed/" + string(kind) + ".json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", kind, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", kind, err)
	}
	return items, nil
}

// LoadActiveUser returns the persisted active user, or nil when nobody is
// logged in or the stored value is unreadable.
func LoadActiveUser(s *Store) (*User, error) {
	raw, ok, err := s.get(KindActiveUser)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KindActiveUser, err)
	}
	if !ok {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.WithError(err).WithField("kind", KindActiveUser).Warn("stored active user is corrupt, ignoring it")
		return nil, nil
	}
	return &u, nil
}

// SaveActiveUser persists u as the active user. A nil user clears it.
func SaveActiveUser(s *Store, u *User) error {
	if u == nil {
		if _, err := s.db.Exec(`DELETE FROM collections WHERE key = ?`, string(KindActiveUser)); err != nil {
			return fmt.Errorf("clear %s: %w", KindActiveUser, err)
		}
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", KindActiveUser, err)
	}
	if err := s.put(KindActiveUser, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", KindActiveUser, err)
	}
	return nil
}

func (s *Store) get(kind Kind) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM collections WHERE key = ?`, string(kind)).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) put(kind Kind, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO collections (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(kind), value, now,
	)
	return err
}
