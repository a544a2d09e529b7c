package bpv7

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/dtn7/cboring"
)

const (
	ipnEndpointSchemeName string = "ipn"
	ipnEndpointSchemeNo   uint64 = 2
)

// IpnEndpoint describes the "ipn" URI scheme for EndpointIDs, as defined in
// RFC 6260. The scheme-specific part is a tuple of a node and a service number.
type IpnEndpoint struct {
	Node    uint64
	Service uint64
}

// NewIpnEndpoint from a URI with the ipn scheme.
func NewIpnEndpoint(uri string) (e EndpointID, err error) {
	// As defined in RFC 6260, section 2.1:
	// - node number: ASCII numeric digits
	// - an ASCII dot
	// - service number: ASCII numeric digits

	re := regexp.MustCompile("^" + ipnEndpointSchemeName + ":(\\d+)\\.(\\d+)$")
	matches := re.FindStringSubmatch(uri)
	if len(matches) != 3 {
		err = fmt.Errorf("IpnEndpoint: %q does not match the ipn URI syntax: %w", uri, ErrMalformedEID)
		return
	}

	var node, service uint64
	if node, err = strconv.ParseUint(matches[1], 10, 64); err != nil {
		return
	}
	if service, err = strconv.ParseUint(matches[2], 10, 64); err != nil {
		return
	}

	e = EndpointID{IpnEndpoint{node, service}}
	err = e.CheckValid()
	return
}

// SchemeName is "ipn" for IpnEndpoints.
func (_ IpnEndpoint) SchemeName() string {
	return ipnEndpointSchemeName
}

// SchemeNo is 2 for IpnEndpoints.
func (_ IpnEndpoint) SchemeNo() uint64 {
	return ipnEndpointSchemeNo
}

// Authority is the authority part of the Endpoint URI, e.g., "23" for "ipn:23.42".
func (e IpnEndpoint) Authority() string {
	return fmt.Sprintf("%d", e.Node)
}

// Path is the path part of the Endpoint URI, e.g., "42" for "ipn:23.42".
func (e IpnEndpoint) Path() string {
	return fmt.Sprintf("%d", e.Service)
}

// CheckValid returns an error for incorrect data. The node number zero is
// invalid; it would address no node at all.
func (e IpnEndpoint) CheckValid() error {
	if e.Node < 1 {
		return fmt.Errorf("IpnEndpoint: node number must be >= 1: %w", ErrMalformedEID)
	}

	return nil
}

func (e IpnEndpoint) String() string {
	return fmt.Sprintf("%s:%d.%d", ipnEndpointSchemeName, e.Node, e.Service)
}

// MarshalCbor writes this IpnEndpoint's CBOR representation.
func (e IpnEndpoint) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}

	for _, n := range []uint64{e.Node, e.Service} {
		if err := cboring.WriteUInt(n, w); err != nil {
			return err
		}
	}

	return nil
}

// UnmarshalCbor reads a CBOR representation of an IpnEndpoint.
func (e *IpnEndpoint) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return fmt.Errorf("IpnEndpoint: %v: %w", err, ErrMalformedEID)
	} else if l != 2 {
		return fmt.Errorf("IpnEndpoint: expected array of 2 elements, got %d: %w", l, ErrMalformedEID)
	}

	for _, n := range []*uint64{&e.Node, &e.Service} {
		if i, err := cboring.ReadUInt(r); err != nil {
			return fmt.Errorf("IpnEndpoint: %v: %w", err, ErrMalformedEID)
		} else {
			*n = i
		}
	}

	return e.CheckValid()
}
