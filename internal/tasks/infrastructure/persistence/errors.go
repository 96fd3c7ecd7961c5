package persistence

import "errors"

// ErrStorageUnavailable is returned while the storage circuit breaker is open.
var ErrStorageUnavailable = errors.New("task storage unavailable")
