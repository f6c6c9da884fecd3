package migration

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDirectoryNotFound - a configured migration directory does not exist.
	ErrDirectoryNotFound = errors.New("migration directory not found")

	// ErrInvalidDefinition - a discovered file does not conform to the
	// migration contract.
	ErrInvalidDefinition = errors.New("invalid migration definition")

	// ErrDuplicateName - two files across the search paths resolve to the
	// same migration name.
	ErrDuplicateName = errors.New("duplicate migration name")

	// ErrUnknownMigration - a tracked name has no corresponding discovered
	// unit, e.g. the file was deleted after it had been applied.
	ErrUnknownMigration = errors.New("unknown migration")

	// ErrAlreadyRecorded - an attempt to track a name that is tracked
	// already. Guarded invariant, the migrate pre-filter should make it
	// unreachable.
	ErrAlreadyRecorded = errors.New("migration already recorded")

	// ErrPersistence - the tracking store failed to read or write.
	ErrPersistence = errors.New("migration state persistence failure")
)

const (
	OpApply   = "apply"
	OpReverse = "reverse"
)

// ExecutionError carries the name of the unit whose apply or reverse
// routine failed together with the underlying cause.
type ExecutionError struct {
	Name string
	Op   string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("migration [%s] failed to %s: %s", e.Name, e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
