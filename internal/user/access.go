package user

import (
	"errors"
	"fmt"
)

// Action is a capability-gated write a user can be restricted from.
type Action string

const (
	ActionChat   Action = "chat"
	ActionOrder  Action = "order"
	ActionReview Action = "review"
)

func (a Action) Valid() bool {
	switch a {
	case ActionChat, ActionOrder, ActionReview:
		return true
	}
	return false
}

var (
	ErrBanned           = errors.New("account is banned")
	ErrCapabilityDenied = errors.New("capability disabled")
)

// DeniedError reports which capability is switched off.
type DeniedError struct{ Action Action }

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s is disabled for this account", e.Action)
}

func (e *DeniedError) Unwrap() error { return ErrCapabilityDenied }

// CheckAccess reports whether u may perform a. A ban overrides every flag.
func (u *User) CheckAccess(a Action) error {
	if u.IsBanned {
		return ErrBanned
	}
	var ok bool
	switch a {
	case ActionChat:
		ok = u.CanChat
	case ActionOrder:
		ok = u.CanOrder
	case ActionReview:
		ok = u.CanReview
	default:
		return fmt.Errorf("unknown action %q", a)
	}
	if !ok {
		return &DeniedError{Action: a}
	}
	return nil
}
