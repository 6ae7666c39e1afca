// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Bootstrap failure kinds

package bootstrap

import (
	"errors"
	"fmt"
)

// Kind names the step that halted the bootstrap
type Kind int

const (
	InterpreterNotFound Kind = iota + 1
	EnvironmentCreationFailed
	ActivationFailed
	DependencyInstallFailed
)

func (k Kind) String() string {
	switch k {
	case InterpreterNotFound:
		return "InterpreterNotFound"
	case EnvironmentCreationFailed:
		return "EnvironmentCreationFailed"
	case ActivationFailed:
		return "ActivationFailed"
	case DependencyInstallFailed:
		return "DependencyInstallFailed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single error type returned by Run
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a bootstrap error of kind k
func IsKind(err error, k Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == k
}

func fail(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}
