package domain

import "errors"

var (
	ErrEmptyLocation = errors.New("location is required")
	ErrUnknownSource = errors.New("unknown source")
	ErrBatchNotFound = errors.New("batch not found")
)
