package bpv7

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dtn7/cboring"
	"github.com/hashicorp/go-multierror"
)

// Bundle represents a bundle as defined in RFC 9171, section 4.3. Those are
// the primary block and one or more canonical blocks, of which this library
// only models the Payload Block.
type Bundle struct {
	PrimaryBlock    PrimaryBlock
	CanonicalBlocks []CanonicalBlock
}

// NewBundle creates a new Bundle. The values are checked for correctness
// before returning the Bundle.
func NewBundle(primary PrimaryBlock, canonicals []CanonicalBlock) (b Bundle, err error) {
	b = Bundle{
		PrimaryBlock:    primary,
		CanonicalBlocks: canonicals,
	}
	err = b.CheckValid()

	return
}

// MustNewBundle creates a new Bundle like NewBundle, but panics in case of an
// error.
func MustNewBundle(primary PrimaryBlock, canonicals []CanonicalBlock) Bundle {
	if b, err := NewBundle(primary, canonicals); err != nil {
		panic(err)
	} else {
		return b
	}
}

// PayloadBlock returns this bundle's Payload Block or an error, if there is
// none.
func (b *Bundle) PayloadBlock() (*CanonicalBlock, error) {
	for i := 0; i < len(b.CanonicalBlocks); i++ {
		if b.CanonicalBlocks[i].BlockNumber == payloadBlockNumber {
			return &b.CanonicalBlocks[i], nil
		}
	}

	return nil, fmt.Errorf("Bundle: %w", ErrMissingPayloadBlock)
}

// ID returns the BundleID of this bundle.
func (b Bundle) ID() BundleID {
	return BundleID{
		SourceNode: b.PrimaryBlock.SourceNode,
		Timestamp:  b.PrimaryBlock.CreationTimestamp,
	}
}

// MarshalCbor writes this Bundle's CBOR representation. The outer frame is an
// indefinite-length array, closed by a break code, as RFC 9171, section 4.3
// permits and most deployed nodes emit.
func (b *Bundle) MarshalCbor(w io.Writer) error {
	if _, err := w.Write([]byte{cboring.IndefiniteArray}); err != nil {
		return err
	}

	if err := cboring.Marshal(&b.PrimaryBlock, w); err != nil {
		return fmt.Errorf("Bundle: marshalling primary block failed: %w", err)
	}

	for i := 0; i < len(b.CanonicalBlocks); i++ {
		if err := cboring.Marshal(&b.CanonicalBlocks[i], w); err != nil {
			return fmt.Errorf("Bundle: marshalling canonical block failed: %w", err)
		}
	}

	if _, err := w.Write([]byte{cboring.BreakCode}); err != nil {
		return err
	}

	return nil
}

// UnmarshalCbor reads a CBOR representation of a Bundle from its
// indefinite-length array framing.
func (b *Bundle) UnmarshalCbor(r io.Reader) error {
	if err := cboring.ReadExpect(cboring.IndefiniteArray, r); err != nil {
		return fmt.Errorf("Bundle: expected indefinite-length array: %v: %w", err, ErrMalformedBundle)
	}

	if err := cboring.Unmarshal(&b.PrimaryBlock, r); err != nil {
		return fmt.Errorf("Bundle: primary block: %w", err)
	}

	for {
		var cb CanonicalBlock
		if err := cboring.Unmarshal(&cb, r); err == cboring.FlagBreakCode {
			break
		} else if err != nil {
			return fmt.Errorf("Bundle: canonical block: %w", err)
		} else {
			b.CanonicalBlocks = append(b.CanonicalBlocks, cb)
		}
	}

	if len(b.CanonicalBlocks) == 0 {
		return fmt.Errorf("Bundle: %w", ErrMissingPayloadBlock)
	}

	return nil
}

// MarshalJSON writes a JSON object for this Bundle.
func (b Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		PrimaryBlock    PrimaryBlock     `json:"primaryBlock"`
		CanonicalBlocks []CanonicalBlock `json:"canonicalBlocks"`
	}{
		PrimaryBlock:    b.PrimaryBlock,
		CanonicalBlocks: b.CanonicalBlocks,
	})
}

// CheckValid returns an array of errors for incorrect data.
func (b Bundle) CheckValid() (errs error) {
	if pbErr := b.PrimaryBlock.CheckValid(); pbErr != nil {
		errs = multierror.Append(errs, pbErr)
	}

	for _, cb := range b.CanonicalBlocks {
		if cbErr := cb.CheckValid(); cbErr != nil {
			errs = multierror.Append(errs, cbErr)
		}
	}

	// block numbers must be unique within a bundle
	blockNumbers := make(map[uint64]bool)
	for _, cb := range b.CanonicalBlocks {
		if blockNumbers[cb.BlockNumber] {
			errs = multierror.Append(errs, fmt.Errorf(
				"Bundle: block number %d occurs multiple times: %w",
				cb.BlockNumber, ErrInvariantViolation))
		}
		blockNumbers[cb.BlockNumber] = true
	}

	if !blockNumbers[payloadBlockNumber] {
		errs = multierror.Append(errs, fmt.Errorf("Bundle: %w", ErrMissingPayloadBlock))
	}

	return
}

// IsAdministrativeRecord returns if this bundle's payload is an
// administrative record, as announced in the bundle processing control flags.
func (b Bundle) IsAdministrativeRecord() bool {
	return b.PrimaryBlock.BundleControlFlags.Has(AdministrativeRecordPayload)
}

func (b Bundle) String() string {
	return b.ID().String()
}

// ParseBundle reads a new Bundle from a Reader and checks its validity.
func ParseBundle(r io.Reader) (b Bundle, err error) {
	if err = cboring.Unmarshal(&b, r); err != nil {
		return
	}

	err = b.CheckValid()
	return
}

// WriteBundle writes this Bundle's CBOR representation to a Writer.
func (b Bundle) WriteBundle(w io.Writer) error {
	return cboring.Marshal(&b, w)
}
