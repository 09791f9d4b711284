package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing name.
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrNameRequired      = errors.New("name is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrPasswordTooLong   = errors.New("password is too long")

	ErrQuestionNotFound = errors.New("question not found")
	ErrQuestionRequired = errors.New("question text is required")
	ErrAnswerRequired   = errors.New("answer text is required")
	// ErrNotExpert is returned when a question is addressed to a user without the expert flag.
	ErrNotExpert = errors.New("user is not an expert")
	// ErrForbidden is returned when the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden")
)
