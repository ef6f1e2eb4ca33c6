package user

import "errors"

// User directory errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrValidation        = errors.New("validation failed")
)
