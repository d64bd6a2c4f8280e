package model

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrTokenInvalid      = errors.New("token invalid or expired")
	ErrValidation        = errors.New("invalid input")
	ErrTwoFactorEnrolled = errors.New("two-factor secret already registered")
)
