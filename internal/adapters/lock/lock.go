package lock

import "errors"

// ErrNotObtained is returned when a lock could not be taken before the
// caller's deadline or the configured wait.
var ErrNotObtained = errors.New("lock not obtained")
