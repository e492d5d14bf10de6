package errors

import (
	"errors"
)

var (
	ErrTooManyLoginAttempts = errors.New("too many failed login attempts")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailAlreadyInUse    = errors.New("email already in use")
	ErrTokenInvalid         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrForbidden            = errors.New("you do not have permission to access this resource")
	ErrUserNotFound         = errors.New("user not found")
	ErrObserverAuthFailed   = errors.New("invalid credentials or no authentication provided")
)
