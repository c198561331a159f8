package board

import "github.com/sadopc/planr/internal/store"

// Session carries the active user into operations that depend on it.
// The zero Session means nobody is logged in.
type Session struct {
	User *store.User
}

func (s Session) Active() bool {
	return s.User != nil
}

func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// IsAdmin reports whether the active user holds the elevated role.
func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.Role == store.RoleAdmin
}
