package store

import "errors"

var (
	ErrNameConflict = errors.New("name already registered")
	ErrNotFound     = errors.New("trackable not found")
	ErrWrongKind    = errors.New("wrong trackable kind")
)
