// Package confidential is the shared kernel for ciphertext references.
//
// A Handle is an opaque pointer to a ciphertext held by the external
// confidential value service. Application code never decodes a handle;
// the only plaintext interpretation allowed without an authorized reveal
// is the reserved zero handle, which stands for "no value submitted yet"
// and resolves to 0.
package confidential

import (
	"errors"
	"strings"
)

// Handle is a 32-byte ciphertext reference in canonical 0x-prefixed hex form.
type Handle string

// ZeroHandle is the reserved all-zero handle.
const ZeroHandle Handle = "0x0000000000000000000000000000000000000000000000000000000000000000"

const handleHexLen = 64

var ErrMalformedHandle = errors.New("ciphertext handle is malformed")

// ParseHandle validates the canonical form and returns the typed handle.
func ParseHandle(raw string) (Handle, error) {
	value := strings.TrimSpace(raw)
	if !strings.HasPrefix(value, "0x") || len(value) != handleHexLen+2 {
		return "", ErrMalformedHandle
	}
	for _, c := range value[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return "", ErrMalformedHandle
		}
	}
	return Handle(strings.ToLower(value)), nil
}

func (h Handle) IsZero() bool {
	return h == ZeroHandle
}

func (h Handle) String() string {
	return string(h)
}

// Proof is the opaque validity proof attached to a freshly encrypted input.
type Proof []byte
