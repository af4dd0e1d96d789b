package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput wraps registration data the service refuses to store.
	ErrInvalidInput = errors.New("invalid input")
)
