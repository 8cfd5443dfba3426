package util

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrActorNotFound  = errors.New("user not found")
	ErrValidation     = errors.New("validation error")
	ErrConfig         = errors.New("missing provider configuration")
	ErrUpstream       = errors.New("upstream provider error")
	ErrNotFound       = errors.New("video not found")
	ErrPersistence    = errors.New("persistence error")
	ErrCourseNotFound = errors.New("course not found")
	ErrInProgress     = errors.New("request with this idempotency key is still in progress")
)
