package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrDuplicateLimit    = errors.New("a spending limit already exists for this category and base")
	ErrRecompute         = errors.New("recomputation failed")
)
