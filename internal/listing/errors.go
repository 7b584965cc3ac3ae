package listing

import "errors"

var (
	ErrNotFound    = errors.New("entry not found")
	ErrDuplicateID = errors.New("entry id already exists")
)
