package clinic

import "errors"

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrProgramNotFound = errors.New("program not found")
	ErrClientExists    = errors.New("client already exists")
	ErrProgramExists   = errors.New("program already exists")
	ErrNotEnrolled     = errors.New("client not enrolled in program")
)

// ErrInvalidInput wraps validation failures detected by the service.
var ErrInvalidInput = errors.New("invalid input")
