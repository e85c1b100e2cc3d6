package workspace

import "errors"

var (
	ErrNotFound        = errors.New("workspace: no such item")
	ErrIndexOutOfRange = errors.New("workspace: index out of range")
	ErrNoSelection     = errors.New("workspace: nothing selected")
	ErrLocked          = errors.New("workspace: document is password-protected")
	ErrUnknownOption   = errors.New("workspace: unknown file option")
	ErrUnknownTab      = errors.New("workspace: unknown tab")
	ErrBusy            = errors.New("workspace: an operation is already running")
)
