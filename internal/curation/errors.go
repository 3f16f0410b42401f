package curation

import (
	"errors"
	"fmt"
)

// ErrStartingPointNotFound is matched with errors.Is when the requested
// starting link does not resolve.
var ErrStartingPointNotFound = errors.New("starting point not found")

type NotFoundError struct {
	Link string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("starting point %q not found", e.Link)
}

func (e *NotFoundError) Unwrap() error { return ErrStartingPointNotFound }
