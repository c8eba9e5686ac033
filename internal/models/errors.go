package models

import "errors"

// Custom errors
var (
	ErrStrategyNameRequired = errors.New("strategy name is required")
	ErrNotFound             = errors.New("record not found")
)
