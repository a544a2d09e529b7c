package bpv7

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dtn7/cboring"
	"github.com/hashicorp/go-multierror"
)

// blockTypePayload is the block type code of the Payload Block, the only
// canonical block type this library models.
const blockTypePayload uint64 = 1

// payloadBlockNumber is the fixed block number of a bundle's Payload Block.
// Block number zero is reserved for the Primary Block's implicit numbering.
const payloadBlockNumber uint64 = 1

// CanonicalBlock represents the canonical bundle block defined in RFC 9171,
// section 4.3.2, restricted to its Payload Block variant. On the wire it is
// the five-element array [blockType, blockNumber, blockControlFlags, crcType,
// data] with the payload bytes framed as a CBOR byte string.
type CanonicalBlock struct {
	BlockNumber       uint64
	BlockControlFlags BlockControlFlags
	CRCType           CRCType
	Data              []byte
}

// NewPayloadBlock creates a Payload Block with its fixed block number.
func NewPayloadBlock(bcf BlockControlFlags, data []byte) CanonicalBlock {
	return CanonicalBlock{
		BlockNumber:       payloadBlockNumber,
		BlockControlFlags: bcf,
		CRCType:           CRCNo,
		Data:              data,
	}
}

// TypeCode returns the block type code, always that of a Payload Block.
func (cb CanonicalBlock) TypeCode() uint64 {
	return blockTypePayload
}

// MarshalCbor writes this Canonical Block's CBOR representation.
func (cb *CanonicalBlock) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(5, w); err != nil {
		return err
	}

	fields := []uint64{blockTypePayload, cb.BlockNumber,
		uint64(cb.BlockControlFlags), uint64(cb.CRCType)}
	for _, f := range fields {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}

	return cboring.WriteByteString(cb.Data, w)
}

// UnmarshalCbor creates this Canonical Block based on a CBOR representation.
func (cb *CanonicalBlock) UnmarshalCbor(r io.Reader) error {
	var blockLen uint64
	if bl, err := cboring.ReadArrayLength(r); err == cboring.FlagBreakCode {
		// the enclosing bundle's indefinite-length array ends here
		return err
	} else if err != nil {
		return fmt.Errorf("CanonicalBlock: %v: %w", err, ErrMalformedCanonicalBlock)
	} else if bl != 5 && bl != 6 {
		return fmt.Errorf("CanonicalBlock: expected array of 5 or 6 elements, got %d: %w",
			bl, ErrMalformedCanonicalBlock)
	} else {
		blockLen = bl
	}

	if bt, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("CanonicalBlock: block type: %v: %w", err, ErrMalformedCanonicalBlock)
	} else if bt != blockTypePayload {
		return fmt.Errorf("CanonicalBlock: block type %d: %w", bt, ErrUnsupportedBlockType)
	}

	if bn, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("CanonicalBlock: block number: %v: %w", err, ErrMalformedCanonicalBlock)
	} else if bn == 0 {
		return fmt.Errorf("CanonicalBlock: block number 0 is reserved for the "+
			"primary block: %w", ErrInvalidBlockNumber)
	} else {
		cb.BlockNumber = bn
	}

	if bcf, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("CanonicalBlock: control flags: %v: %w", err, ErrMalformedCanonicalBlock)
	} else {
		cb.BlockControlFlags = BlockControlFlags(bcf)
	}

	if crcT, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("CanonicalBlock: crc type: %v: %w", err, ErrMalformedCanonicalBlock)
	} else if CRCType(crcT) != CRCNo {
		return fmt.Errorf("CanonicalBlock: crc type %v: %w", CRCType(crcT), ErrUnsupportedCRC)
	} else {
		cb.CRCType = CRCType(crcT)
	}

	if data, err := cboring.ReadByteString(r); err != nil {
		return fmt.Errorf("CanonicalBlock: data: %v: %w", err, ErrMalformedCanonicalBlock)
	} else {
		cb.Data = data
	}

	if blockLen == 6 {
		return fmt.Errorf("CanonicalBlock: a sixth element is present, but the "+
			"crc type is none: %w", ErrMalformedCanonicalBlock)
	}

	return nil
}

// MarshalJSON writes a JSON object for this Canonical Block.
func (cb CanonicalBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		BlockNumber   uint64            `json:"blockNumber"`
		BlockTypeCode uint64            `json:"blockTypeCode"`
		ControlFlags  BlockControlFlags `json:"blockControlFlags"`
		Data          []byte            `json:"data"`
	}{
		BlockNumber:   cb.BlockNumber,
		BlockTypeCode: cb.TypeCode(),
		ControlFlags:  cb.BlockControlFlags,
		Data:          cb.Data,
	})
}

// CheckValid returns an array of errors for incorrect data.
func (cb CanonicalBlock) CheckValid() (errs error) {
	if bcfErr := cb.BlockControlFlags.CheckValid(); bcfErr != nil {
		errs = multierror.Append(errs, bcfErr)
	}

	if cb.BlockNumber == 0 {
		errs = multierror.Append(errs, fmt.Errorf(
			"CanonicalBlock: block number 0 is reserved for the primary block: %w",
			ErrInvalidBlockNumber))
	} else if cb.BlockNumber != payloadBlockNumber {
		errs = multierror.Append(errs, fmt.Errorf(
			"CanonicalBlock: Payload Block has block number %d instead of %d: %w",
			cb.BlockNumber, payloadBlockNumber, ErrInvariantViolation))
	}

	if cb.CRCType != CRCNo {
		errs = multierror.Append(errs, fmt.Errorf(
			"CanonicalBlock: crc type %v: %w", cb.CRCType, ErrUnsupportedCRC))
	}

	return
}

func (cb CanonicalBlock) String() string {
	var b strings.Builder

	_, _ = fmt.Fprintf(&b, "block type code: %d, ", cb.TypeCode())
	_, _ = fmt.Fprintf(&b, "block number: %d, ", cb.BlockNumber)
	_, _ = fmt.Fprintf(&b, "block processing control flags: %b, ", cb.BlockControlFlags)
	_, _ = fmt.Fprintf(&b, "crc type: %v, ", cb.CRCType)
	_, _ = fmt.Fprintf(&b, "data: %d bytes", len(cb.Data))

	return b.String()
}
