package bpv7

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dtn7/cboring"
)

// EndpointType describes a kind of Endpoint ID, dispatched by its URI scheme.
// Both DtnEndpoint and IpnEndpoint implement this interface with value
// receivers, so EndpointIDs stay comparable with ==.
type EndpointType interface {
	// SchemeName is the URI scheme's text form, e.g., "dtn".
	SchemeName() string

	// SchemeNo is the URI scheme's code point on the wire.
	SchemeNo() uint64

	// Authority is the authority part of the Endpoint URI, e.g., "foo" for "dtn://foo/bar".
	Authority() string

	// Path is the path part of the Endpoint URI, e.g., "/bar" for "dtn://foo/bar".
	Path() string

	// CheckValid returns an error for incorrect data.
	CheckValid() error

	// MarshalCbor writes the scheme-specific part's CBOR representation.
	MarshalCbor(w io.Writer) error

	fmt.Stringer
}

// EndpointID represents an Endpoint ID as defined in RFC 9171, section 4.2.5.1.
// On the wire it is a two-element array of the scheme's code point and the
// scheme-specific part, whose shape depends on the scheme.
type EndpointID struct {
	EndpointType
}

// NewEndpointID creates a new EndpointID from a URI. The "dtn" and "ipn" URI
// schemes are supported; everything else fails with ErrMalformedEID.
func NewEndpointID(uri string) (e EndpointID, err error) {
	switch {
	case strings.HasPrefix(uri, dtnEndpointSchemeName+":"):
		return NewDtnEndpoint(uri)

	case strings.HasPrefix(uri, ipnEndpointSchemeName+":"):
		return NewIpnEndpoint(uri)

	default:
		err = fmt.Errorf("EndpointID: unknown URI scheme in %q: %w", uri, ErrMalformedEID)
		return
	}
}

// MustNewEndpointID returns a new EndpointID like NewEndpointID, but panics
// in case of an error.
func MustNewEndpointID(uri string) EndpointID {
	if e, err := NewEndpointID(uri); err != nil {
		panic(err)
	} else {
		return e
	}
}

// CheckValid returns an error for incorrect data.
func (eid EndpointID) CheckValid() error {
	if eid.EndpointType == nil {
		return fmt.Errorf("EndpointID: no scheme-specific part is present: %w", ErrMalformedEID)
	}

	return eid.EndpointType.CheckValid()
}

func (eid EndpointID) String() string {
	if eid.EndpointType == nil {
		return ""
	}

	return eid.EndpointType.String()
}

// MarshalCbor writes this EndpointID's CBOR representation.
func (eid *EndpointID) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}

	if err := cboring.WriteUInt(eid.SchemeNo(), w); err != nil {
		return err
	}

	return eid.EndpointType.MarshalCbor(w)
}

// UnmarshalCbor reads a CBOR representation of an EndpointID.
func (eid *EndpointID) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return fmt.Errorf("EndpointID: %v: %w", err, ErrMalformedEID)
	} else if l != 2 {
		return fmt.Errorf("EndpointID: expected array of 2 elements, got %d: %w", l, ErrMalformedEID)
	}

	schemeNo, err := cboring.ReadUInt(r)
	if err != nil {
		return fmt.Errorf("EndpointID: scheme number: %v: %w", err, ErrMalformedEID)
	}

	switch schemeNo {
	case dtnEndpointSchemeNo:
		var e DtnEndpoint
		if err := e.UnmarshalCbor(r); err != nil {
			return err
		}
		eid.EndpointType = e

	case ipnEndpointSchemeNo:
		var e IpnEndpoint
		if err := e.UnmarshalCbor(r); err != nil {
			return err
		}
		eid.EndpointType = e

	default:
		return fmt.Errorf("EndpointID: scheme number %d: %w", schemeNo, ErrUnsupportedScheme)
	}

	return nil
}

// MarshalJSON writes this EndpointID's URI as a JSON string.
func (eid EndpointID) MarshalJSON() ([]byte, error) {
	return json.Marshal(eid.String())
}
