package repo

import "errors"

// ErrCorrupt marks a snapshot that exists but cannot be parsed into
// feedback entries. Backends wrap it with the offending location.
var ErrCorrupt = errors.New("snapshot corrupt")
