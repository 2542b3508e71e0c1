package service

import "errors"

var (
	ErrInvalidCategory      = errors.New("invalid quiz category")
	ErrGenerationFailed     = errors.New("quiz generation failed")
	ErrMalformedResponse    = errors.New("malformed provider response")
	ErrNoActiveSession      = errors.New("no active quiz session")
	ErrQuizAlreadyEnded     = errors.New("quiz already ended")
	ErrGenerationInProgress = errors.New("quiz generation already in progress")
	ErrStaleAnswer          = errors.New("answer does not match the current question")
)
