package main

import (
	"errors"

	"github.com/alfredjeanlab/trail/internal/audit"
	"github.com/alfredjeanlab/trail/internal/store"
)

// Exit codes. Scripts key on these, so each error kind gets its own.
const (
	exitGeneric     = 1
	exitUnavailable = 2
	exitContention  = 3
	exitDuplicate   = 4
	exitNoBoundary  = 5
	exitWrongType   = 6
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, store.ErrUnavailable):
		return exitUnavailable
	case errors.Is(err, store.ErrContention):
		return exitContention
	case errors.Is(err, audit.ErrDuplicateEvent):
		return exitDuplicate
	case errors.Is(err, audit.ErrBoundaryNotFound):
		return exitNoBoundary
	case errors.Is(err, store.ErrWrongType):
		return exitWrongType
	default:
		return exitGeneric
	}
}
