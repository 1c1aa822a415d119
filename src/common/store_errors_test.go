package common

import (
	"errors"
	"testing"
)

func TestIsStore(t *testing.T) {
	err := NewStoreErr("Unit", KeyNotFound, "abc")

	if !IsStore(err, KeyNotFound) {
		t.Fatalf("expected KeyNotFound")
	}
	if IsStore(err, Empty) {
		t.Fatalf("did not expect Empty")
	}
	if IsStore(errors.New("Unit, abc, Not Found"), KeyNotFound) {
		t.Fatalf("plain errors are not store errors")
	}
	if err.Error() != "Unit, abc, Not Found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
