package bpv7

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// BundleControlFlags is an uint64 which represents the Bundle Processing
// Control Flags as specified in RFC 9171, section 4.2.3. They assert
// properties of the bundle as a whole and travel in the Primary Block.
type BundleControlFlags uint64

const (
	// IsFragment: the bundle is a fragment.
	IsFragment BundleControlFlags = 0x000001

	// AdministrativeRecordPayload: the bundle's payload is an administrative record.
	AdministrativeRecordPayload BundleControlFlags = 0x000002

	// MustNotFragmented: the bundle must not be fragmented.
	MustNotFragmented BundleControlFlags = 0x000004

	// RequestUserApplicationAck: acknowledgment by the user application is requested.
	RequestUserApplicationAck BundleControlFlags = 0x000020

	// RequestStatusTime: status time is requested in all status reports.
	RequestStatusTime BundleControlFlags = 0x000040

	// StatusRequestReception: request reporting of bundle reception.
	StatusRequestReception BundleControlFlags = 0x004000

	// StatusRequestForward: request reporting of bundle forwarding.
	StatusRequestForward BundleControlFlags = 0x010000

	// StatusRequestDelivery: request reporting of bundle delivery.
	StatusRequestDelivery BundleControlFlags = 0x020000

	// StatusRequestDeletion: request reporting of bundle deletion.
	StatusRequestDeletion BundleControlFlags = 0x040000

	bndlCFReservedFields = ^(IsFragment | AdministrativeRecordPayload |
		MustNotFragmented | RequestUserApplicationAck | RequestStatusTime |
		StatusRequestReception | StatusRequestForward | StatusRequestDelivery |
		StatusRequestDeletion)
)

// Has returns true if a given flag or mask of flags is set.
func (bcf BundleControlFlags) Has(flag BundleControlFlags) bool {
	return (bcf & flag) != 0
}

// CheckValid returns an error for incorrect data.
func (bcf BundleControlFlags) CheckValid() (errs error) {
	if bcf.Has(bndlCFReservedFields) {
		errs = multierror.Append(errs, fmt.Errorf(
			"BundleControlFlags: flag %#x contains reserved bits: %w", uint64(bcf), ErrInvariantViolation))
	}

	if bcf.Has(IsFragment) && bcf.Has(MustNotFragmented) {
		errs = multierror.Append(errs, fmt.Errorf(
			"BundleControlFlags: both the is-fragment and the must-not-be-fragmented "+
				"flags are set: %w", ErrInvariantViolation))
	}

	// payload is administrative record => no status report request flags
	adminRecCheck := !bcf.Has(AdministrativeRecordPayload) ||
		(!bcf.Has(StatusRequestReception) &&
			!bcf.Has(StatusRequestForward) &&
			!bcf.Has(StatusRequestDelivery) &&
			!bcf.Has(StatusRequestDeletion))
	if !adminRecCheck {
		errs = multierror.Append(errs, fmt.Errorf(
			"BundleControlFlags: the payload is an administrative record, but "+
				"status report request flags are set: %w", ErrInvariantViolation))
	}

	return
}
