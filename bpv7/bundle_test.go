package bpv7

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/dtn7/cboring"
)

func TestBundleRoundtrip(t *testing.T) {
	payload := []byte("Is there anybody out there?")

	b1, err := Builder().
		Source("dtn://box1/").
		Destination("dtn://greatunknown/incoming").
		CreationTimestampEpoch().
		Lifetime(uint64(3600000)).
		PayloadBlock(payload).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	buff := new(bytes.Buffer)
	if err := b1.WriteBundle(buff); err != nil {
		t.Fatal(err)
	}

	b2, err := ParseBundle(buff)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(b1, b2) {
		t.Fatalf("Bundles differ: %v, %v", b1, b2)
	}

	if pb, err := b2.PayloadBlock(); err != nil {
		t.Fatal(err)
	} else if !bytes.Equal(pb.Data, payload) {
		t.Fatalf("payload differs: %q", pb.Data)
	}

	if src := b2.PrimaryBlock.SourceNode.String(); src != "dtn://box1/" {
		t.Fatalf("source is %q", src)
	}
	if dst := b2.PrimaryBlock.Destination.String(); dst != "dtn://greatunknown/incoming" {
		t.Fatalf("destination is %q", dst)
	}
	if lt := b2.PrimaryBlock.Lifetime; lt != 3600000 {
		t.Fatalf("lifetime is %d", lt)
	}
}

func TestBundleFraming(t *testing.T) {
	b := MustNewBundle(
		NewPrimaryBlock(
			0, MustNewEndpointID("dtn://dest/"), MustNewEndpointID("dtn://src/"),
			NewCreationTimestamp(DtnTimeEpoch, 0), 3600000),
		[]CanonicalBlock{NewPayloadBlock(0, []byte("x"))})

	buff := new(bytes.Buffer)
	if err := b.WriteBundle(buff); err != nil {
		t.Fatal(err)
	}

	data := buff.Bytes()
	if data[0] != cboring.IndefiniteArray {
		t.Fatalf("bundle does not start with an indefinite-length array: %x", data[0])
	}
	if data[len(data)-1] != cboring.BreakCode {
		t.Fatalf("bundle does not end with a break code: %x", data[len(data)-1])
	}
}

func TestBundleParseInvalid(t *testing.T) {
	validPrimary := func(buff *bytes.Buffer) {
		pb := NewPrimaryBlock(
			0, MustNewEndpointID("dtn://dest/"), MustNewEndpointID("dtn://src/"),
			NewCreationTimestamp(DtnTimeEpoch, 0), 3600000)
		_ = cboring.Marshal(&pb, buff)
	}
	payload := func(blockNumber uint64) func(buff *bytes.Buffer) {
		return func(buff *bytes.Buffer) {
			cb := NewPayloadBlock(0, []byte("x"))
			cb.BlockNumber = blockNumber
			_ = cboring.Marshal(&cb, buff)
		}
	}

	marshal := func(frame bool, fields ...func(buff *bytes.Buffer)) []byte {
		buff := new(bytes.Buffer)
		if frame {
			buff.WriteByte(cboring.IndefiniteArray)
		}
		for _, f := range fields {
			f(buff)
		}
		if frame {
			buff.WriteByte(cboring.BreakCode)
		}
		return buff.Bytes()
	}

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{
			"definite-length outer array",
			marshal(false, func(buff *bytes.Buffer) {
				_ = cboring.WriteArrayLength(2, buff)
			}, validPrimary, payload(1)),
			ErrMalformedBundle,
		},
		{
			"no payload block",
			marshal(true, validPrimary),
			ErrMissingPayloadBlock,
		},
		{
			"duplicate block numbers",
			marshal(true, validPrimary, payload(1), payload(1)),
			ErrInvariantViolation,
		},
		{
			"empty input",
			[]byte{},
			ErrMalformedBundle,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseBundle(bytes.NewBuffer(test.data))
			if err == nil {
				t.Fatalf("%x did not error", test.data)
			}
			if !errors.Is(err, test.err) {
				t.Fatalf("%x: expected %v, got %v", test.data, test.err, err)
			}
		})
	}
}

func TestBundleErrorTaxonomy(t *testing.T) {
	structural := marshalBrokenBundle(t, []byte{0x81, 0x00})
	if _, err := ParseBundle(bytes.NewBuffer(structural)); !IsStructural(err) {
		t.Fatalf("a truncated bundle is not structural: %v", err)
	}

	// a well-formed primary block announcing version 6
	versioned := new(bytes.Buffer)
	versioned.WriteByte(cboring.IndefiniteArray)
	_ = cboring.WriteArrayLength(8, versioned)
	_ = cboring.WriteUInt(6, versioned)
	if _, err := ParseBundle(versioned); !IsSemantic(err) {
		t.Fatalf("an unsupported version is not semantic: %v", err)
	} else if IsStructural(err) {
		t.Fatalf("an unsupported version claims to be structural too: %v", err)
	}
}

func marshalBrokenBundle(t *testing.T, raw []byte) []byte {
	t.Helper()

	buff := new(bytes.Buffer)
	buff.WriteByte(cboring.IndefiniteArray)
	buff.Write(raw)
	return buff.Bytes()
}

func TestBundleID(t *testing.T) {
	b := MustNewBundle(
		NewPrimaryBlock(
			0, MustNewEndpointID("dtn://dest/"), MustNewEndpointID("dtn://src/"),
			NewCreationTimestamp(42000, 23), 3600000),
		[]CanonicalBlock{NewPayloadBlock(0, []byte("x"))})

	if id := b.ID().String(); id != "dtn://src/-42000-23" {
		t.Fatalf("unexpected BundleID: %q", id)
	}
}

func TestBundleCheckValidMissingPayload(t *testing.T) {
	b := Bundle{
		PrimaryBlock: NewPrimaryBlock(
			0, MustNewEndpointID("dtn://dest/"), MustNewEndpointID("dtn://src/"),
			NewCreationTimestamp(DtnTimeEpoch, 0), 3600000),
	}

	if err := b.CheckValid(); !errors.Is(err, ErrMissingPayloadBlock) {
		t.Fatalf("expected ErrMissingPayloadBlock, got %v", err)
	}

	if _, err := b.PayloadBlock(); !errors.Is(err, ErrMissingPayloadBlock) {
		t.Fatalf("expected ErrMissingPayloadBlock, got %v", err)
	}
}
