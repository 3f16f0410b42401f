package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUndeclaredIdentifier is returned when a declaration names a
	// container that no loaded symbol graph declares.
	ErrUndeclaredIdentifier = errors.New("undeclared identifier")

	// ErrHierarchyCycle is returned when containment would form a cycle.
	ErrHierarchyCycle = errors.New("containment hierarchy cycle")
)

type ResolutionError struct {
	Identifier   string // the undeclared identifier
	ReferencedBy string // the declaration that referenced it
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("symbol %q is a member of undeclared identifier %q", e.ReferencedBy, e.Identifier)
}

func (e *ResolutionError) Unwrap() error { return ErrUndeclaredIdentifier }
