package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the
// repository. This abstracts away the underlying storage implementation
// from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness guarantee
// (one ACTIVE code per voter and period, one CAST vote per voter and
// position, one live tally run per period). The indexes are the
// authoritative guard; services translate this into their typed conflicts.
var ErrDuplicate = errors.New("duplicate record")

// ErrCodeCollision is returned when a generated code string collides with
// an existing one. Distinct from ErrDuplicate so the issuer can retry
// generation instead of reporting a conflict to the caller.
var ErrCodeCollision = errors.New("voting code collision")

// ErrStale is returned when a guarded update matched no rows because the
// row left the expected state between read and write.
var ErrStale = errors.New("row no longer in expected state")
