package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrStopping     = errors.New("service stopping")
	ErrDuplicate    = errors.New("duplicate message")
	ErrNotRanked    = errors.New("user not ranked")
	ErrInvalidCount = errors.New("count must not be negative")
)
