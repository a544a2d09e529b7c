package client

import (
	"encoding/json"
	"fmt"

	"github.com/teschmitt/go-dtn7/bpv7"
)

// PeerEndpoint wraps an EndpointID for the JSON tuple representation dtnd
// uses in its peer listing, [schemeNo, ssp]. The ssp is a string for the dtn
// scheme and a two-element number array for the ipn scheme.
type PeerEndpoint struct {
	bpv7.EndpointID
}

// UnmarshalJSON reads dtnd's [schemeNo, ssp] tuple.
func (pe *PeerEndpoint) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("PeerEndpoint: %v: %w", err, bpv7.ErrMalformedEID)
	} else if len(tuple) != 2 {
		return fmt.Errorf("PeerEndpoint: expected tuple of 2 elements, got %d: %w",
			len(tuple), bpv7.ErrMalformedEID)
	}

	var schemeNo uint64
	if err := json.Unmarshal(tuple[0], &schemeNo); err != nil {
		return fmt.Errorf("PeerEndpoint: scheme number: %v: %w", err, bpv7.ErrMalformedEID)
	}

	switch schemeNo {
	case 1:
		var ssp string
		if err := json.Unmarshal(tuple[1], &ssp); err != nil {
			return fmt.Errorf("PeerEndpoint: dtn ssp: %v: %w", err, bpv7.ErrMalformedEID)
		}

		if eid, err := bpv7.NewEndpointID("dtn:" + ssp); err != nil {
			return err
		} else {
			pe.EndpointID = eid
		}

	case 2:
		var ssp [2]uint64
		if err := json.Unmarshal(tuple[1], &ssp); err != nil {
			return fmt.Errorf("PeerEndpoint: ipn ssp: %v: %w", err, bpv7.ErrMalformedEID)
		}

		if eid, err := bpv7.NewEndpointID(fmt.Sprintf("ipn:%d.%d", ssp[0], ssp[1])); err != nil {
			return err
		} else {
			pe.EndpointID = eid
		}

	default:
		return fmt.Errorf("PeerEndpoint: scheme number %d: %w", schemeNo, bpv7.ErrUnsupportedScheme)
	}

	return nil
}

// Peer is one entry of dtnd's peer listing.
type Peer struct {
	EID         PeerEndpoint `json:"eid"`
	ConType     string       `json:"con_type"`
	LastContact uint64       `json:"last_contact"`
}
