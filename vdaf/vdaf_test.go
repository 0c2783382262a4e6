package vdaf

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindsDistinct(t *testing.T) {
	kinds := []error{ErrDecode, ErrEncode, ErrVerify, ErrAbort, ErrInvalidState, ErrInvalidInput}
	for i, a := range kinds {
		for j, b := range kinds {
			if (i == j) != errors.Is(a, b) {
				t.Fatalf("error kinds %d and %d conflated", i, j)
			}
		}
	}
}

func TestWrappedMatch(t *testing.T) {
	err := fmt.Errorf("prio3: proof did not verify: %w", ErrVerify)
	if !errors.Is(err, ErrVerify) {
		t.Fatalf("wrapped verify error does not match")
	}
	if errors.Is(err, ErrAbort) {
		t.Fatalf("verify error matches abort")
	}
}
