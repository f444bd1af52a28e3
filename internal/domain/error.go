package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Job lifecycle errors
	ErrJobNotAvailable = errors.New("job is not available for execution")
	ErrInvalidPayload  = errors.New("payload failed service validation")
)
