package bpv7

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/dtn7/cboring"
)

const (
	dtnEndpointSchemeName string = "dtn"
	dtnEndpointSchemeNo   uint64 = 1
	dtnEndpointDtnNoneSsp string = "none"
)

// DtnEndpoint describes the "dtn" URI scheme for EndpointIDs, as defined in
// RFC 9171, section 4.2.5.1.1. The scheme-specific part is either the text
// "none" for the null endpoint or something URI-like starting with "//".
type DtnEndpoint struct {
	Ssp string
}

// NewDtnEndpoint from a URI with the dtn scheme.
func NewDtnEndpoint(uri string) (e EndpointID, err error) {
	// A "dtn" URI might be the null endpoint "dtn:none" or something URI/IRI
	// like. Thus, at first we are going after the null endpoint and inspect a
	// more generic URI afterwards.

	if uri == DtnNone().String() {
		return DtnNone(), nil
	}

	re := regexp.MustCompile("^" + dtnEndpointSchemeName + "://(.+)/(.*)$")
	matches := re.FindStringSubmatch(uri)
	if len(matches) != 3 {
		err = fmt.Errorf("DtnEndpoint: %q does not match the dtn URI syntax: %w", uri, ErrMalformedEID)
		return
	}

	e = EndpointID{DtnEndpoint{Ssp: fmt.Sprintf("//%s/%s", matches[1], matches[2])}}
	err = e.CheckValid()
	return
}

// SchemeName is "dtn" for DtnEndpoints.
func (_ DtnEndpoint) SchemeName() string {
	return dtnEndpointSchemeName
}

// SchemeNo is 1 for DtnEndpoints.
func (_ DtnEndpoint) SchemeNo() uint64 {
	return dtnEndpointSchemeNo
}

// IsDtnNone checks if this is the null endpoint "dtn:none".
func (e DtnEndpoint) IsDtnNone() bool {
	return e.Ssp == dtnEndpointDtnNoneSsp
}

func (e DtnEndpoint) parseUri() (authority, path string) {
	// The null endpoint requires some specific behaviour because it does not
	// comply with the URI schema.
	if e.IsDtnNone() {
		return dtnEndpointDtnNoneSsp, "/"
	}

	u, err := url.Parse(e.String())
	if err != nil {
		return
	}

	authority = u.Hostname()
	path = u.RequestURI()
	return
}

// Authority is the authority part of the Endpoint URI, e.g., "foo" for "dtn://foo/bar".
func (e DtnEndpoint) Authority() string {
	authority, _ := e.parseUri()
	return authority
}

// Path is the path part of the Endpoint URI, e.g., "/bar" for "dtn://foo/bar".
func (e DtnEndpoint) Path() string {
	_, path := e.parseUri()
	return path
}

// CheckValid returns an error for incorrect data.
func (e DtnEndpoint) CheckValid() (err error) {
	re := regexp.MustCompile("^" + dtnEndpointSchemeName + ":(none|//(.+)/(.*))$")
	if !re.MatchString(e.String()) {
		err = fmt.Errorf("DtnEndpoint: %q does not match the dtn URI syntax: %w", e.String(), ErrMalformedEID)
	}
	return
}

func (e DtnEndpoint) String() string {
	return fmt.Sprintf("%s:%s", dtnEndpointSchemeName, e.Ssp)
}

// MarshalCbor writes this DtnEndpoint's CBOR representation. The null
// endpoint becomes the integer zero, everything else its ssp text.
func (e DtnEndpoint) MarshalCbor(w io.Writer) error {
	if e.IsDtnNone() {
		return cboring.WriteUInt(0, w)
	}

	return cboring.WriteTextString(e.Ssp, w)
}

// UnmarshalCbor reads a CBOR representation.
func (e *DtnEndpoint) UnmarshalCbor(r io.Reader) error {
	m, n, err := cboring.ReadMajors(r)
	if err != nil {
		return fmt.Errorf("DtnEndpoint: %v: %w", err, ErrMalformedEID)
	}

	switch m {
	case cboring.UInt:
		// dtn:none
		if n != 0 {
			return fmt.Errorf("DtnEndpoint: ssp integer must be 0, not %d: %w", n, ErrMalformedEID)
		}
		e.Ssp = dtnEndpointDtnNoneSsp

	case cboring.TextString:
		// dtn://whatever/
		tmp, rawErr := cboring.ReadRawBytes(n, r)
		if rawErr != nil {
			return fmt.Errorf("DtnEndpoint: %v: %w", rawErr, ErrMalformedEID)
		}

		e.Ssp = string(tmp)
		if !strings.HasPrefix(e.Ssp, "//") {
			return fmt.Errorf("DtnEndpoint: ssp %q does not start with \"//\": %w", e.Ssp, ErrMalformedEID)
		}

	default:
		return fmt.Errorf("DtnEndpoint: wrong major type 0x%X for unmarshalling: %w", m, ErrMalformedEID)
	}

	return nil
}

// DtnNone returns the null endpoint "dtn:none".
func DtnNone() EndpointID {
	return EndpointID{DtnEndpoint{Ssp: dtnEndpointDtnNoneSsp}}
}
