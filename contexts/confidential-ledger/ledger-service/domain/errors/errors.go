package errors

import "errors"

var (
	ErrInvalidAddress        = errors.New("user address is required")
	ErrInvalidActionType     = errors.New("action type is out of range")
	ErrInvalidCityCode       = errors.New("city code is out of range")
	ErrInvalidCiphertext     = errors.New("amount handle is not a valid ciphertext reference")
	ErrInvalidProof          = errors.New("amount proof failed verification")
	ErrAlreadySubmittedToday = errors.New("a submission already exists for this user and day")
	ErrClockSkew             = errors.New("submission day precedes the last recorded day")
)
