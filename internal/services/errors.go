package services

import "errors"

// Service errors. Handlers map these onto API errors.
var (
	ErrNoData             = errors.New("no processed data available")
	ErrInsightsNotFound   = errors.New("no insights file found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
