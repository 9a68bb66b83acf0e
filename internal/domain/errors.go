package domain

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the actor is not allowed to act on the record.
var ErrForbidden = errors.New("forbidden")
