package errors

import "errors"

var (
	ErrInvalidAddress = errors.New("user address is required")
	ErrInvalidLevel   = errors.New("badge level is out of range")
	ErrNotEligible    = errors.New("streak has not reached the badge threshold")
	ErrAlreadyClaimed = errors.New("badge level already claimed by this user")
	ErrNotClaimed     = errors.New("badge level was never claimed by this user")
	ErrNotAuthorized  = errors.New("actor is not authorized for this operation")
)
