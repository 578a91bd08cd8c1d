package dispatch

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a trip.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every state in board order.
var Statuses = []Status{StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled}

// Event drives a status change.
type Event string

const (
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// ErrInvalidTransition is returned when an event is not allowed from the current status.
var ErrInvalidTransition = errors.New("invalid trip status transition")

var transitions = map[Status]map[Event]Status{
	StatusPlanned: {
		EventStart:  StatusInProgress,
		EventCancel: StatusCancelled,
	},
	StatusInProgress: {
		EventComplete: StatusCompleted,
		EventCancel:   StatusCancelled,
	},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Next returns the status reached by applying e to s.
func Next(s Status, e Event) (Status, error) {
	if to, ok := transitions[s][e]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: cannot %s a %s trip", ErrInvalidTransition, e, s)
}

// Can reports whether e is allowed from s.
func (s Status) Can(e Event) bool {
	_, ok := transitions[s][e]
	return ok
}

// CanEdit reports whether the trip document may be edited.
func (s Status) CanEdit() bool {
	return s == StatusPlanned
}

// CanManageProducts reports whether dispatch items may be replaced.
func (s Status) CanManageProducts() bool {
	return s == StatusPlanned || s == StatusInProgress
}

// IsTerminal reports whether no further event is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseEvent maps a path segment to an Event.
func ParseEvent(raw string) (Event, bool) {
	switch Event(raw) {
	case EventStart, EventComplete, EventCancel:
		return Event(raw), true
	}
	return "", false
}

// Action is something the board offers for a trip.
type Action string

const (
	ActionStart          Action = "start"
	ActionEdit           Action = "edit"
	ActionManageProducts Action = "manage_products"
	ActionComplete       Action = "complete"
	ActionCancel         Action = "cancel"
	ActionView           Action = "view"
	ActionPrint          Action = "print"
)

// Actions returns the board actions for a trip in status s.
func (s Status) Actions() []Action {
	switch s {
	case StatusPlanned:
		return []Action{ActionStart, ActionEdit, ActionManageProducts}
	case StatusInProgress:
		return []Action{ActionComplete, ActionManageProducts, ActionCancel}
	case StatusCompleted, StatusCancelled:
		return []Action{ActionView, ActionPrint}
	}
	return nil
}
