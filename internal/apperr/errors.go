// Package apperr defines the sentinel errors service layers classify
// failures with. Handlers map them to status codes via errors.Is.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnsupportedType = errors.New("unsupported document type")
)
