package persistence

import (
	"errors"
	"fmt"
)

var (
	ErrDefinitionNotFound = errors.New("workflow definition not found")
	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
)

// LedgerError annotates a storage failure with the operation and entry it
// belongs to.
type LedgerError struct {
	Op      string
	EntryID string
	Err     error
}

func (e *LedgerError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("ledger %s (entry %s): %v", e.Op, e.EntryID, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

func NewLedgerError(op, entryID string, err error) *LedgerError {
	return &LedgerError{Op: op, EntryID: entryID, Err: err}
}
