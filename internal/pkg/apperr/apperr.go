package apperr

import "errors"

// Sentinel errors for the domain error taxonomy. Services wrap these with
// fmt.Errorf("...: %w", ...) and handlers map them to HTTP statuses.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream failure")
)
