package bpv7

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dtn7/cboring"
)

// DtnTime is an unsigned integer indicating the amount of milliseconds that
// have elapsed since the start of the year 2000 on the UTC scale. It is
// specified in RFC 9171, section 4.2.6.
type DtnTime uint64

const (
	millis1970To2k int64 = 946684800000

	// DtnTimeEpoch represents the zero timestamp/epoch. It doubles as the
	// sentinel for "no reliable clock was available".
	DtnTimeEpoch DtnTime = 0
)

// Time returns a UTC-based time.Time for this DtnTime.
func (t DtnTime) Time() time.Time {
	return time.UnixMilli(int64(t) + millis1970To2k).UTC()
}

// String returns this DtnTime's string representation.
func (t DtnTime) String() string {
	return t.Time().Format("2006-01-02 15:04:05")
}

// DtnTimeFromTime returns the DtnTime for the time.Time.
func DtnTimeFromTime(t time.Time) DtnTime {
	return DtnTime(t.UTC().UnixMilli() - millis1970To2k)
}

// DtnTimeNow returns the current (UTC) time as DtnTime.
func DtnTimeNow() DtnTime {
	return DtnTimeFromTime(time.Now())
}

// Clock is the time source used when stamping new bundles. Now reports the
// current DtnTime; ok is false if no reliable time is available, in which
// case callers must fall back to the DtnTimeEpoch sentinel. The codec itself
// never consults a clock, keeping encode and decode deterministic.
type Clock interface {
	Now() (dtnTime DtnTime, ok bool)
}

// SystemClock is a Clock backed by the operating system's wall clock.
type SystemClock struct{}

// Now returns the wall clock's DtnTime.
func (_ SystemClock) Now() (DtnTime, bool) {
	return DtnTimeNow(), true
}

// CreationTimestamp is a tuple of a DtnTime and a sequence number to differ
// bundles with the same DtnTime from the same source endpoint. It is
// specified in RFC 9171, section 4.2.7. The sequence number carries no
// ordering promise across different sources.
type CreationTimestamp [2]uint64

// NewCreationTimestamp creates a new creation timestamp from a given DTN time
// and a sequence number, resulting in a hopefully unique tuple.
func NewCreationTimestamp(time DtnTime, sequence uint64) CreationTimestamp {
	return [2]uint64{uint64(time), sequence}
}

// DtnTime returns the creation timestamp's DTN time part.
func (ct CreationTimestamp) DtnTime() DtnTime {
	return DtnTime(ct[0])
}

// IsZeroTime returns if the time part is set to zero, indicating the lack of
// an accurate clock.
func (ct CreationTimestamp) IsZeroTime() bool {
	return ct.DtnTime() == DtnTimeEpoch
}

// SequenceNumber returns the creation timestamp's sequence number.
func (ct CreationTimestamp) SequenceNumber() uint64 {
	return ct[1]
}

func (ct CreationTimestamp) String() string {
	return fmt.Sprintf("(%v, %d)", DtnTime(ct[0]), ct[1])
}

// MarshalCbor writes a CBOR representation for this CreationTimestamp.
func (ct *CreationTimestamp) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}

	for _, f := range ct {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}

	return nil
}

// UnmarshalCbor reads a CBOR representation of a CreationTimestamp.
func (ct *CreationTimestamp) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return fmt.Errorf("CreationTimestamp: %v: %w", err, ErrMalformedTimestamp)
	} else if l != 2 {
		return fmt.Errorf("CreationTimestamp: expected array of 2 elements, got %d: %w", l, ErrMalformedTimestamp)
	}

	for i := 0; i < 2; i++ {
		if f, err := cboring.ReadUInt(r); err != nil {
			return fmt.Errorf("CreationTimestamp: %v: %w", err, ErrMalformedTimestamp)
		} else {
			ct[i] = f
		}
	}

	return nil
}

// MarshalJSON creates a JSON object representing this CreationTimestamp.
func (ct CreationTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Date string `json:"date"`
		Seq  uint64 `json:"sequenceNo"`
	}{
		Date: ct.DtnTime().String(),
		Seq:  ct.SequenceNumber(),
	})
}
