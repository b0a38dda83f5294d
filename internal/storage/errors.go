package storage

import "errors"

// Sentinels returned by every backend. Callers match them with errors.Is;
// backends may wrap them with detail.
var (
	// ErrNotFound: no ranking for the run ID, or no latest ticker for the symbol.
	ErrNotFound = errors.New("storage: not found")

	// ErrDuplicateKey: a ranking with this run ID is already saved. Rankings are write-once.
	ErrDuplicateKey = errors.New("storage: run id already saved")

	// ErrInvalidInput: a record failed validation before anything was written.
	ErrInvalidInput = errors.New("storage: invalid input")
)
