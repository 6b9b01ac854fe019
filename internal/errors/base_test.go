package errors

import (
	"errors"
	"testing"
)

var errCause = errors.New("connection reset")

func TestWrap(t *testing.T) {
	err := Wrap(errCause, "submit order")
	if err.Error() != "submit order, err: connection reset" {
		t.Fatalf("error mismatch: %+v", err)
	}

	if !errors.Is(err, errCause) {
		t.Fatal("wrapped error should match cause")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "ignored"); err != nil {
		t.Fatalf("wrapping nil should stay nil, got %+v", err)
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errCause, "cancel order %s", "ord-1")
	if err.Error() != "cancel order ord-1, err: connection reset" {
		t.Fatalf("error mismatch: %+v", err)
	}
}
