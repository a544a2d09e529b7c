package bpv7

import (
	"errors"
	"testing"
)

func TestBundleControlFlagsHas(t *testing.T) {
	var cf = IsFragment | AdministrativeRecordPayload

	if !cf.Has(IsFragment) {
		t.Fatal("cf has no IsFragment-flag even when it was set")
	}
	if cf.Has(MustNotFragmented) {
		t.Fatal("cf has a MustNotFragmented-flag which was not set")
	}
}

func TestBundleControlFlagsCheckValid(t *testing.T) {
	tests := []struct {
		cf    BundleControlFlags
		valid bool
	}{
		{0, true},
		{IsFragment, true},
		{StatusRequestReception | StatusRequestDelivery, true},
		{IsFragment | MustNotFragmented, false},
		{AdministrativeRecordPayload | StatusRequestDeletion, false},
		{0x80, false},   // reserved bit
		{0x8000, false}, // reserved bit
	}

	for _, test := range tests {
		err := test.cf.CheckValid()
		if test.valid && err != nil {
			t.Fatalf("%#x errored: %v", uint64(test.cf), err)
		} else if !test.valid && err == nil {
			t.Fatalf("%#x did not error", uint64(test.cf))
		}

		if !test.valid && !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("%#x: expected ErrInvariantViolation, got %v", uint64(test.cf), err)
		}
	}
}
