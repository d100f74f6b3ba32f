package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModule rejects a module name outside the catalog.
	ErrUnknownModule = errors.New("unknown module")
	// ErrInvalidSheet rejects a sheet identifier that is not a number.
	ErrInvalidSheet = errors.New("invalid sheet number")
)

// CorruptSnapshotError means the durable snapshot exists but cannot be
// decoded. The caller chooses the recovery policy; starting empty loses
// data and must be an explicit, logged decision.
type CorruptSnapshotError struct {
	Path string
	Err  error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("corrupt ledger snapshot %s: %v", e.Path, e.Err)
}

func (e *CorruptSnapshotError) Unwrap() error { return e.Err }

// PersistenceError means the ledger could not be written to durable
// storage. The in-memory state is unaffected.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist ledger to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
