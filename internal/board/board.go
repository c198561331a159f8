// Package board holds the in-memory entity stores of a planr workspace.
// Every mutation replaces the affected collection and writes it through to
// the persistence store before the new state becomes visible.
//
// Stores are not safe for concurrent use; callers drive them from a single
// goroutine.
package board

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/planr/internal/store"
	"github.com/sirupsen/logrus"
)

// Board bundles the entity stores that share one persistence store and one
// event bus.
type Board struct {
	Users         *UserStore
	Projects      *ProjectStore
	Tasks         *TaskStore
	Notifications *NotificationStore
	Roles         *RoleStore

	bus *Bus
}

// Option customises a Board.
type Option func(*deps)

// WithClock replaces the clock used to stamp timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithIDs replaces the id generator used for new records.
func WithIDs(newID func() string) Option {
	return func(d *deps) { d.newID = newID }
}

// deps is shared by every store of a board.
type deps struct {
	kv    *store.Store
	log   *logrus.Entry
	bus   *Bus
	now   func() time.Time
	newID func() string
}

func (d *deps) stamp() time.Time {
	return d.now().UTC()
}

// Open loads every collection from kv. Load failures do not abort: the
// affected store starts empty and reports the failure through Err.
func Open(kv *store.Store, log *logrus.Entry, opts ...Option) *Board {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	d := &deps{
		kv:    kv,
		log:   log,
		bus:   NewBus(log),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}

	b := &Board{bus: d.bus}
	b.Users = newUserStore(d)
	b.Projects = newProjectStore(d)
	b.Tasks = newTaskStore(d)
	b.Notifications = newNotificationStore(d, b.Users.Current())
	b.Roles = newRoleStore(d)

	d.bus.Subscribe(b.Tasks.handle)
	d.bus.Subscribe(b.Notifications.handle)
	return b
}

// Bus exposes the board's event bus so collaborators can observe mutations.
func (b *Board) Bus() *Bus {
	return b.bus
}

// Err returns the first load failure of any store.
func (b *Board) Err() error {
	for _, err := range []error{b.Users.Err(), b.Projects.Err(), b.Tasks.Err(), b.Notifications.Err(), b.Roles.Err()} {
		if err != nil {
			return err
		}
	}
	return nil
}

// cloneEach deep-copies records so callers never share memory with a store.
func cloneEach[T interface{ Clone() T }](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
