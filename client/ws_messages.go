package client

import (
	"fmt"
	"io"

	"github.com/dtn7/cboring"

	"github.com/teschmitt/go-dtn7/bpv7"
)

// sendRequest asks the node to build and dispatch a bundle from its fields.
// It is the data mode's outgoing message, a CBOR map with text keys.
type sendRequest struct {
	Source               bpv7.EndpointID
	Destination          bpv7.EndpointID
	DeliveryNotification bool
	Lifetime             uint64
	Data                 []byte
}

// MarshalCbor writes this sendRequest's CBOR map.
func (sr *sendRequest) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteMapPairLength(5, w); err != nil {
		return err
	}

	if err := cboring.WriteTextString("src", w); err != nil {
		return err
	} else if err := cboring.WriteTextString(sr.Source.String(), w); err != nil {
		return err
	}

	if err := cboring.WriteTextString("dst", w); err != nil {
		return err
	} else if err := cboring.WriteTextString(sr.Destination.String(), w); err != nil {
		return err
	}

	if err := cboring.WriteTextString("delivery_notification", w); err != nil {
		return err
	} else if err := cboring.WriteBoolean(sr.DeliveryNotification, w); err != nil {
		return err
	}

	if err := cboring.WriteTextString("lifetime", w); err != nil {
		return err
	} else if err := cboring.WriteUInt(sr.Lifetime, w); err != nil {
		return err
	}

	if err := cboring.WriteTextString("data", w); err != nil {
		return err
	} else if err := cboring.WriteByteString(sr.Data, w); err != nil {
		return err
	}

	return nil
}

// IncomingData is the data mode's incoming message, a bundle already unpacked
// by the node into its addressing fields and payload.
type IncomingData struct {
	BundleID    string
	Source      string
	Destination string
	Timestamp   bpv7.CreationTimestamp
	Lifetime    uint64
	Data        []byte
}

// UnmarshalCbor reads an IncomingData CBOR map, as the node serializes it.
func (id *IncomingData) UnmarshalCbor(r io.Reader) error {
	pairs, err := cboring.ReadMapPairLength(r)
	if err != nil {
		return fmt.Errorf("IncomingData: %v", err)
	}

	for ; pairs > 0; pairs-- {
		key, keyErr := cboring.ReadTextString(r)
		if keyErr != nil {
			return fmt.Errorf("IncomingData: map key: %v", keyErr)
		}

		switch key {
		case "bid":
			if id.BundleID, err = cboring.ReadTextString(r); err != nil {
				return fmt.Errorf("IncomingData: bid: %v", err)
			}

		case "src":
			if id.Source, err = cboring.ReadTextString(r); err != nil {
				return fmt.Errorf("IncomingData: src: %v", err)
			}

		case "dst":
			if id.Destination, err = cboring.ReadTextString(r); err != nil {
				return fmt.Errorf("IncomingData: dst: %v", err)
			}

		case "cts":
			if err = cboring.Unmarshal(&id.Timestamp, r); err != nil {
				return fmt.Errorf("IncomingData: cts: %v", err)
			}

		case "lifetime":
			if id.Lifetime, err = cboring.ReadUInt(r); err != nil {
				return fmt.Errorf("IncomingData: lifetime: %v", err)
			}

		case "data":
			if id.Data, err = cboring.ReadByteString(r); err != nil {
				return fmt.Errorf("IncomingData: data: %v", err)
			}

		default:
			return fmt.Errorf("IncomingData: unexpected map key %q", key)
		}
	}

	return nil
}
