package services

import "errors"

// ErrForbidden is returned when a known principal is not entitled to the
// resource, as opposed to store.ErrNotFound for absent resources.
var ErrForbidden = errors.New("forbidden")
