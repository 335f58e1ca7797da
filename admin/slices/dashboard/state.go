package dashboard

import (
	"slices"
	"time"

	globalCommon "github.com/oexza/adminfront/common"
)

// Dialog is the modal currently open on a dashboard tab. It is one of
// Closed, Creating, Editing or ConfirmingDelete.
type Dialog interface {
	dialog()
}

type Closed struct{}

type Creating struct{}

type Editing struct {
	User globalCommon.User
}

type ConfirmingDelete struct {
	User globalCommon.User
}

func (Closed) dialog()           {}
func (Creating) dialog()         {}
func (Editing) dialog()          {}
func (ConfirmingDelete) dialog() {}

// State is what one loaded dashboard page knows. Users mirrors the last
// backend answer, patched by successful edits and deletes.
type State struct {
	Message    string
	UserEmail  string
	Users      []globalCommon.User
	Dialog     Dialog
	Submitting bool

	lastSeen time.Time
}

func (s *State) FindUser(id string) (globalCommon.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return globalCommon.User{}, false
}

// ReplaceUser swaps the entry with the same id in place.
func (s *State) ReplaceUser(user globalCommon.User) bool {
	for i, u := range s.Users {
		if u.ID == user.ID {
			s.Users[i] = user
			return true
		}
	}
	return false
}

func (s *State) RemoveUser(id string) bool {
	before := len(s.Users)
	s.Users = slices.DeleteFunc(s.Users, func(u globalCommon.User) bool { return u.ID == id })
	return len(s.Users) != before
}

func (s *State) clone() State {
	c := *s
	c.Users = slices.Clone(s.Users)
	if c.Dialog == nil {
		c.Dialog = Closed{}
	}
	return c
}
