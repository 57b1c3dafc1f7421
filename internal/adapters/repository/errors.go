package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound  = errors.New("document not found")
	ErrMalformed = errors.New("malformed document")
	ErrSave      = errors.New("save document failed")
)
