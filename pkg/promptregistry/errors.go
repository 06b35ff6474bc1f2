package promptregistry

import "errors"

// ErrInvalidKey is returned when a prompt key does not match
// [A-Za-z0-9_-]+.
var ErrInvalidKey = errors.New("promptregistry: invalid prompt key")

// ErrNotFound is returned by callers that require a prompt to exist.
var ErrNotFound = errors.New("promptregistry: prompt not found")
