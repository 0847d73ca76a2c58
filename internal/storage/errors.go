package storage

import (
	"errors"
	"fmt"
)

// ErrStorage matches every error returned by this package.
var ErrStorage = errors.New("storage failure")

// Error describes a failed storage operation and the path it touched.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrStorage.
func (e *Error) Is(target error) bool { return target == ErrStorage }
