package confidential

import (
	"errors"
	"strings"
	"testing"
)

func TestParseHandleNormalizesCase(t *testing.T) {
	raw := "0x" + strings.Repeat("AB", 32)
	handle, err := ParseHandle(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if handle.String() != strings.ToLower(raw) {
		t.Fatalf("expected lowercased handle, got %s", handle)
	}
}

func TestParseHandleRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"0x",
		"0x1234",
		strings.Repeat("a", 66),
		"0x" + strings.Repeat("g", 64),
		"0x" + strings.Repeat("a", 63),
	}
	for _, raw := range cases {
		if _, err := ParseHandle(raw); !errors.Is(err, ErrMalformedHandle) {
			t.Fatalf("expected ErrMalformedHandle for %q, got %v", raw, err)
		}
	}
}

func TestZeroHandle(t *testing.T) {
	handle, err := ParseHandle(string(ZeroHandle))
	if err != nil {
		t.Fatalf("zero handle must parse: %v", err)
	}
	if !handle.IsZero() {
		t.Fatal("zero handle must report IsZero")
	}
	other, err := ParseHandle("0x" + strings.Repeat("0", 63) + "1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if other.IsZero() {
		t.Fatal("non-zero handle must not report IsZero")
	}
}
