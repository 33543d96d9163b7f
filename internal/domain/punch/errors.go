package punch

import "errors"

var (
	ErrPunchNotFound         = errors.New("punch not found")
	ErrPunchAlreadyConfirmed = errors.New("punch has already been confirmed")
	ErrInvalidPunchType      = errors.New("invalid punch type")
)
