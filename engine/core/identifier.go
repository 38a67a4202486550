package core

import "github.com/google/uuid"

// WindowID uniquely identifies one live window. IDs are never reused: a
// window that has been removed from the registry keeps its ID forever.
type WindowID = uuid.UUID

// NilWindowID is the zero value, used where no window is targeted yet.
var NilWindowID = uuid.Nil

func NewWindowID() WindowID {
	return uuid.New()
}
