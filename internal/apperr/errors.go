package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidPath  = errors.New("invalid page path")
	ErrEmptyContent = errors.New("content is required")
)
