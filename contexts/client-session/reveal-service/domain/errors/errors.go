package errors

import "errors"

var (
	ErrInvalidHandle     = errors.New("handle is not a valid ciphertext reference")
	ErrOperationInFlight = errors.New("another operation is already in flight for this session")
	ErrSignatureRejected = errors.New("the signer declined the decryption grant")
	ErrGrantUnavailable  = errors.New("no decryption grant could be acquired")
	ErrGrantRejected     = errors.New("the value service rejected the decryption grant")
	ErrEncryptFailed     = errors.New("input encryption failed")
	ErrDecryptFailed     = errors.New("decryption failed")
)
