package models

import "fmt"

// ActionType tags the variant of an Action. The numeric values are part of
// the snapshot format and must not be reordered.
type ActionType uint32

const (
	SetAction ActionType = iota
	DeleteAction
)

func (t ActionType) String() string {
	switch t {
	case SetAction:
		return "set"
	case DeleteAction:
		return "delete"
	default:
		return fmt.Sprintf("ActionType(%d)", uint32(t))
	}
}

// Action is a staged write waiting in the pending queue. Value is only
// meaningful for SetAction.
type Action struct {
	Type  ActionType
	Key   string
	Value string
}

func NewSet(key, value string) Action {
	return Action{Type: SetAction, Key: key, Value: value}
}

func NewDelete(key string) Action {
	return Action{Type: DeleteAction, Key: key}
}

// StateMachine is anything committed actions can be applied to.
type StateMachine interface {
	Apply(action Action)
}

// Entry is a single key/value pair of the authoritative store.
type Entry struct {
	Key   string
	Value string
}
