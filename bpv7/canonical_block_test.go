package bpv7

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/dtn7/cboring"
)

func TestCanonicalBlockCbor(t *testing.T) {
	cb := NewPayloadBlock(0, []byte("hello world"))

	buff := new(bytes.Buffer)
	if err := cboring.Marshal(&cb, buff); err != nil {
		t.Fatal(err)
	}

	// [1, 1, 0, 0, b"hello world"]
	expected := append(
		[]byte{0x85, 0x01, 0x01, 0x00, 0x00, 0x4B},
		[]byte("hello world")...)
	if data := buff.Bytes(); !bytes.Equal(data, expected) {
		t.Fatalf("expected %x, got %x", expected, data)
	}

	var cb2 CanonicalBlock
	if err := cboring.Unmarshal(&cb2, buff); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(cb, cb2) {
		t.Fatalf("CanonicalBlocks differ: %v, %v", cb, cb2)
	}
}

func TestCanonicalBlockUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{
			"wrong array length",
			[]byte{0x84, 0x01, 0x01, 0x00, 0x00},
			ErrMalformedCanonicalBlock,
		},
		{
			"block type 7",
			[]byte{0x85, 0x07, 0x02, 0x00, 0x00, 0x40},
			ErrUnsupportedBlockType,
		},
		{
			"block number 0",
			[]byte{0x85, 0x01, 0x00, 0x00, 0x00, 0x40},
			ErrInvalidBlockNumber,
		},
		{
			"crc type 32",
			[]byte{0x85, 0x01, 0x01, 0x00, 0x02, 0x40},
			ErrUnsupportedCRC,
		},
		{
			"crc value without crc type",
			[]byte{0x86, 0x01, 0x01, 0x00, 0x00, 0x40, 0x42, 0x00, 0x00},
			ErrMalformedCanonicalBlock,
		},
		{
			"data is no byte string",
			[]byte{0x85, 0x01, 0x01, 0x00, 0x00, 0x17},
			ErrMalformedCanonicalBlock,
		},
		{
			"empty input",
			[]byte{},
			ErrMalformedCanonicalBlock,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var cb CanonicalBlock
			err := cboring.Unmarshal(&cb, bytes.NewBuffer(test.data))
			if err == nil {
				t.Fatalf("%x did not error", test.data)
			}
			if !errors.Is(err, test.err) {
				t.Fatalf("%x: expected %v, got %v", test.data, test.err, err)
			}
		})
	}
}

func TestCanonicalBlockUnmarshalBreakCode(t *testing.T) {
	// a decoder iterating a bundle's indefinite-length array relies on the
	// break code's sentinel error passing through unwrapped
	var cb CanonicalBlock
	err := cb.UnmarshalCbor(bytes.NewBuffer([]byte{cboring.BreakCode}))
	if err != cboring.FlagBreakCode {
		t.Fatalf("expected FlagBreakCode, got %v", err)
	}
}

func TestCanonicalBlockCheckValid(t *testing.T) {
	tests := []struct {
		cb    CanonicalBlock
		valid bool
	}{
		{NewPayloadBlock(0, []byte("data")), true},
		{NewPayloadBlock(ReplicateBlock, []byte("data")), true},
		{NewPayloadBlock(0x08, []byte("data")), false},
		{CanonicalBlock{BlockNumber: 0, Data: []byte("data")}, false},
		{CanonicalBlock{BlockNumber: 2, Data: []byte("data")}, false},
		{CanonicalBlock{BlockNumber: 1, CRCType: CRC16, Data: []byte("data")}, false},
	}

	for _, test := range tests {
		if err := test.cb.CheckValid(); test.valid && err != nil {
			t.Fatalf("%v errored: %v", test.cb, err)
		} else if !test.valid && err == nil {
			t.Fatalf("%v did not error", test.cb)
		}
	}
}
