package sessions

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInterviewNotFound = errors.New("interview not found")
)
