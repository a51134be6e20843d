package repository

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound     = errors.New("vehicle not found")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
