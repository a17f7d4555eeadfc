package services

import "errors"

// Service errors
var (
	ErrInvalidInput = errors.New("invalid input")

	// site errors
	ErrSiteRequired = errors.New("site is required")
)
