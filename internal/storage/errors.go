package storage

import "errors"

// ErrNotFound is returned by Get when the key has never been written or was
// deleted. Callers degrade to an empty initial state rather than failing.
var ErrNotFound = errors.New("storage: key not found")
