package drafts

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("draft already exists for session")
)
