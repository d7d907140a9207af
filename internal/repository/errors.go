package repository

import "errors"

// ErrVersionConflict reports an optimistic-concurrency mismatch: the row was
// updated since the aggregate was read.
var ErrVersionConflict = errors.New("version conflict")
