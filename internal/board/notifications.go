package board

import (
	"fmt"
	"slices"

	"github.com/sadopc/planr/internal/store"
)

// NotificationStore persists every user's notifications and keeps a view of
// the session user's own, newest first.
type NotificationStore struct {
	*deps
	all    []store.Notification
	active []store.Notification
	sess   Session
	err    error
}

func newNotificationStore(d *deps, sess Session) *NotificationStore {
	s := &NotificationStore{deps: d, sess: sess}
	all, err := store.Load[store.Notification](d.kv, store.KindNotifications)
	if err != nil {
		d.log.WithError(err).WithField("operation", "notifications.load").Error("failed to load notifications")
		s.err = err
		return s
	}
	s.all = all
	s.refilter()
	return s
}

func (s *NotificationStore) Err() error { return s.err }

// Active returns the session user's notifications, newest first.
func (s *NotificationStore) Active() []store.Notification {
	return cloneEach(s.active)
}

// UnreadFor returns sess's unread notifications, newest first.
func (s *NotificationStore) UnreadFor(sess Session) []store.Notification {
	if !sess.Active() {
		return nil
	}
	var out []store.Notification
	for i := len(s.all) - 1; i >= 0; i-- {
		n := s.all[i]
		if n.UserID == sess.UserID() && !n.Read {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (s *NotificationStore) UnreadCount(sess Session) int {
	return len(s.UnreadFor(sess))
}

// Reload rereads notifications from storage and refilters for sess. When
// the read fails the in-memory set is refiltered instead.
func (s *NotificationStore) Reload(sess Session) error {
	s.sess = sess
	all, err := store.Load[store.Notification](s.kv, store.KindNotifications)
	if err != nil {
		s.log.WithError(err).WithField("operation", "notifications.Reload").Warn("reload failed, using cached notifications")
		s.refilter()
		return fmt.Errorf("reload notifications: %w", err)
	}
	s.all = all
	s.err = nil
	s.refilter()
	return nil
}

// MarkRead flags one notification as read. Unknown ids are ignored.
func (s *NotificationStore) MarkRead(id string) error {
	if err := loaded(s.err); err != nil {
		return err
	}
	i := slices.IndexFunc(s.all, func(n store.Notification) bool { return n.ID == id })
	if i < 0 || s.all[i].Read {
		return nil
	}
	all := slices.Clone(s.all)
	all[i].Read = true
	if err := s.save(all); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

func (s *NotificationStore) handle(ev Event) error {
	var batch []store.Notification
	switch e := ev.(type) {
	case TaskCreated:
		for _, uid := range e.Task.AssignedTo {
			if uid == "" {
				continue
			}
			batch = append(batch, s.notify(uid, store.NotifyTaskAssigned,
				fmt.Sprintf(`You have been assigned to "%s"`, e.Task.Title),
				&store.NotificationData{TaskID: e.Task.ID}))
		}
	case TaskUpdated:
		// Only the editor hears about their own edit, and only as an assignee.
		if e.Editor.Active() && e.Task.IsAssigned(e.Editor.UserID()) {
			batch = append(batch, s.notify(e.Editor.UserID(), store.NotifyTaskUpdated,
				fmt.Sprintf(`Task "%s" has been updated`, e.Task.Title),
				&store.NotificationData{TaskID: e.Task.ID}))
		}
	case CommentAdded:
		for _, uid := range e.Task.AssignedTo {
			if uid == "" || uid == e.Comment.UserID {
				continue
			}
			batch = append(batch, s.notify(uid, store.NotifyCommentAdded,
				fmt.Sprintf(`New comment on "%s"`, e.Task.Title),
				&store.NotificationData{TaskID: e.Task.ID, CommentID: e.Comment.ID}))
		}
	case SessionChanged:
		return s.Reload(e.Session)
	default:
		return nil
	}
	if len(batch) == 0 {
		return nil
	}
	if err := loaded(s.err); err != nil {
		return fmt.Errorf("notify on %s: %w", ev.Name(), err)
	}
	if err := s.save(append(slices.Clone(s.all), batch...)); err != nil {
		return fmt.Errorf("notify on %s: %w", ev.Name(), err)
	}
	return nil
}

func (s *NotificationStore) notify(userID string, typ store.NotificationType, msg string, data *store.NotificationData) store.Notification {
	return store.Notification{
		ID:        s.newID(),
		UserID:    userID,
		Type:      typ,
		Message:   msg,
		CreatedAt: s.stamp(),
		Data:      data,
	}
}

func (s *NotificationStore) save(all []store.Notification) error {
	if err := store.Save(s.kv, store.KindNotifications, all); err != nil {
		s.log.WithError(err).WithField("operation", "notifications.save").Error("failed to save notifications")
		return err
	}
	s.all = all
	s.refilter()
	return nil
}

func (s *NotificationStore) refilter() {
	s.active = nil
	if !s.sess.Active() {
		return
	}
	for i := len(s.all) - 1; i >= 0; i-- {
		if s.all[i].UserID == s.sess.UserID() {
			s.active = append(s.active, s.all[i])
		}
	}
}
