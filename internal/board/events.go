package board

import (
	"errors"
	"fmt"

	"github.com/sadopc/planr/internal/store"
	"github.com/sirupsen/logrus"
)

// Event is published by a store after a mutation has been persisted.
type Event interface {
	Name() string
}

type TaskCreated struct {
	Task  store.Task
	Actor Session
}

type TaskUpdated struct {
	Task   store.Task
	Editor Session
}

type TaskDeleted struct {
	TaskID   string
	Comments int // comments removed with the task
}

type CommentAdded struct {
	Task    store.Task
	Comment store.Comment
}

type ProjectDeleted struct {
	ProjectID string
}

// SessionChanged fires on login, logout, and when the active user's record
// is updated or deleted.
type SessionChanged struct {
	Session Session
}

func (TaskCreated) Name() string    { return "task.created" }
func (TaskUpdated) Name() string    { return "task.updated" }
func (TaskDeleted) Name() string    { return "task.deleted" }
func (CommentAdded) Name() string   { return "comment.added" }
func (ProjectDeleted) Name() string { return "project.deleted" }
func (SessionChanged) Name() string { return "session.changed" }

// Handler consumes events. Handlers ignore event types they do not care
// about.
type Handler func(Event) error

// Bus dispatches events synchronously, in subscription order.
type Bus struct {
	handlers []Handler
	log      *logrus.Entry
}

func NewBus(log *logrus.Entry) *Bus {
	return &Bus{log: log}
}

// Subscribe registers a handler for every event.
func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Publish runs every handler and joins their errors. A panicking handler is
// recovered and reported as an error so the publisher keeps running.
func (b *Bus) Publish(ev Event) error {
	var errs []error
	for _, h := range b.handlers {
		if err := b.dispatch(h, ev); err != nil {
			b.log.WithError(err).WithField("event", ev.Name()).Error("event handler failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) dispatch(h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic on %s: %v", ev.Name(), r)
		}
	}()
	return h(ev)
}
