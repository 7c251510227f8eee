package errors

import "errors"

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidID = errors.New("invalid resource ID format")

	ErrDuplicateName = errors.New("resource name already exists")
)
