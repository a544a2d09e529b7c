package bpv7

import "errors"

// CodecError is the root of every error this package reports for a failed
// decode. The sentinel values below wrap a CodecError; use errors.Is to test
// for a specific one and IsStructural or IsSemantic for the coarse category.
type CodecError struct {
	msg      string
	semantic bool
}

func newStructuralError(msg string) *CodecError {
	return &CodecError{msg: msg}
}

func newSemanticError(msg string) *CodecError {
	return &CodecError{msg: msg, semantic: true}
}

func (e *CodecError) Error() string {
	return e.msg
}

// Semantic reports whether this error describes data that was well-formed,
// but requests a feature outside of this library's scope. A structural error
// instead means the raw data did not have the expected shape.
func (e *CodecError) Semantic() bool {
	return e.semantic
}

// Structural errors: the raw CBOR data has the wrong shape for the addressed
// structure. The message cannot be decoded, regardless of the peer software.
var (
	// ErrMalformedEID marks an Endpoint ID of invalid shape or syntax.
	ErrMalformedEID = newStructuralError("malformed endpoint identifier")

	// ErrMalformedTimestamp marks a Creation Timestamp of invalid shape.
	ErrMalformedTimestamp = newStructuralError("malformed creation timestamp")

	// ErrMalformedPrimaryBlock marks a Primary Block of invalid shape.
	ErrMalformedPrimaryBlock = newStructuralError("malformed primary block")

	// ErrMalformedCanonicalBlock marks a Canonical Block of invalid shape.
	ErrMalformedCanonicalBlock = newStructuralError("malformed canonical block")

	// ErrMalformedBundle marks a broken outer bundle framing.
	ErrMalformedBundle = newStructuralError("malformed bundle")
)

// Semantic errors: the data was parsed, but describes something this library
// does not support or a protocol rule it refuses to ignore. The peer might
// simply be incompatible.
var (
	// ErrUnsupportedScheme is reported for an unknown URI scheme number.
	ErrUnsupportedScheme = newSemanticError("unsupported endpoint scheme")

	// ErrUnsupportedVersion is reported for a Bundle Protocol version != 7.
	ErrUnsupportedVersion = newSemanticError("unsupported bundle protocol version")

	// ErrUnsupportedCRC is reported for blocks carrying a CRC, which this
	// library neither calculates nor verifies.
	ErrUnsupportedCRC = newSemanticError("unsupported crc type")

	// ErrFragmentationUnsupported is reported for fragmented bundles.
	ErrFragmentationUnsupported = newSemanticError("bundle fragmentation is not supported")

	// ErrUnsupportedBlockType is reported for canonical blocks other than the
	// Payload Block.
	ErrUnsupportedBlockType = newSemanticError("unsupported block type")

	// ErrInvalidBlockNumber is reported for a canonical block numbered zero,
	// which is reserved for the Primary Block.
	ErrInvalidBlockNumber = newSemanticError("invalid block number")

	// ErrMissingPayloadBlock is reported for bundles without a Payload Block.
	ErrMissingPayloadBlock = newSemanticError("missing payload block")

	// ErrInvariantViolation is reported when a bundle's blocks are valid on
	// their own, but break a rule of the bundle as a whole.
	ErrInvariantViolation = newSemanticError("bundle invariant violated")
)

// IsStructural reports whether err originates from raw data of the wrong
// shape, e.g., an array of unexpected length or a wrong element type.
func IsStructural(err error) bool {
	var codecErr *CodecError
	return errors.As(err, &codecErr) && !codecErr.Semantic()
}

// IsSemantic reports whether err originates from well-formed data requesting
// something unsupported, e.g., another protocol version or a CRC.
func IsSemantic(err error) bool {
	var codecErr *CodecError
	return errors.As(err, &codecErr) && codecErr.Semantic()
}
