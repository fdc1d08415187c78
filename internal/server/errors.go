package server

import "errors"

// ErrInvalidRequest means the request body failed to bind or validate
// before reaching the coordinator.
var ErrInvalidRequest = errors.New("invalid request")
