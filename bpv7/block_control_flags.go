package bpv7

import (
	"fmt"
	"strings"
)

// BlockControlFlags is an uint64 which represents the Block Processing
// Control Flags as specified in RFC 9171, section 4.2.4.
type BlockControlFlags uint64

const (
	// ReplicateBlock: this block must be replicated in every fragment.
	ReplicateBlock BlockControlFlags = 0x01

	// StatusReportBlock: transmission of a status report is requested if this
	// block can't be processed.
	StatusReportBlock BlockControlFlags = 0x02

	// DeleteBundle: bundle must be deleted if this block can't be processed.
	DeleteBundle BlockControlFlags = 0x04

	// RemoveBlock: block must be discarded if it can't be processed.
	RemoveBlock BlockControlFlags = 0x10

	blckCFReservedFields = ^(ReplicateBlock | StatusReportBlock | DeleteBundle | RemoveBlock)
)

// Has returns true if a given flag or mask of flags is set.
func (bcf BlockControlFlags) Has(flag BlockControlFlags) bool {
	return (bcf & flag) != 0
}

// CheckValid returns an error for incorrect data.
func (bcf BlockControlFlags) CheckValid() error {
	if bcf.Has(blckCFReservedFields) {
		return fmt.Errorf("BlockControlFlags: flag %#x contains reserved bits: %w",
			uint64(bcf), ErrInvariantViolation)
	}

	return nil
}

func (bcf BlockControlFlags) String() string {
	var fields []string

	checks := []struct {
		field BlockControlFlags
		text  string
	}{
		{DeleteBundle, "DELETE_BUNDLE"},
		{StatusReportBlock, "REQUEST_STATUS_REPORT"},
		{RemoveBlock, "REMOVE_BLOCK"},
		{ReplicateBlock, "REPLICATE_BLOCK"},
	}

	for _, check := range checks {
		if bcf.Has(check.field) {
			fields = append(fields, check.text)
		}
	}

	return strings.Join(fields, ",")
}
