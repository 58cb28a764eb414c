package repositories

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	// ErrConflict means a conditional update matched no row: another writer
	// moved the record first.
	ErrConflict = errors.New("record changed concurrently")
)
