package bpv7

import (
	"fmt"
	"time"
)

// BundleBuilder is a simple framework to create bundles by chaining methods.
//
//	bndl, err := bpv7.Builder().
//		Source("dtn://src/").
//		Destination("dtn://dest/").
//		CreationTimestampNow().
//		Lifetime("30m").
//		PayloadBlock([]byte("hello world!")).
//		Build()
type BundleBuilder struct {
	err error

	primary    PrimaryBlock
	canonicals []CanonicalBlock
	clock      Clock
}

// Builder creates a new BundleBuilder.
func Builder() *BundleBuilder {
	return &BundleBuilder{
		primary: PrimaryBlock{
			Version:  dtnVersion,
			CRCType:  CRCNo,
			ReportTo: DtnNone(),
		},
		clock: SystemClock{},
	}
}

// Error returns the BundleBuilder's error, if one is present.
func (bldr *BundleBuilder) Error() error {
	return bldr.err
}

// Build creates a new Bundle and returns an optional error.
func (bldr *BundleBuilder) Build() (bndl Bundle, err error) {
	if bldr.err != nil {
		err = bldr.err
		return
	}

	// a report-to endpoint defaults to the source node
	if bldr.primary.ReportTo == DtnNone() && bldr.primary.SourceNode != DtnNone() {
		bldr.primary.ReportTo = bldr.primary.SourceNode
	}

	return NewBundle(bldr.primary, bldr.canonicals)
}

// Clock replaces the time source used by CreationTimestampNow. This serves
// tests and hosts without a reliable wall clock.
func (bldr *BundleBuilder) Clock(clock Clock) *BundleBuilder {
	if bldr.err == nil {
		bldr.clock = clock
	}
	return bldr
}

// bldrParseEndpoint returns an EndpointID for a given EndpointID or a string,
// representing an endpoint identifier's URI.
func bldrParseEndpoint(eid interface{}) (e EndpointID, err error) {
	switch eid := eid.(type) {
	case EndpointID:
		e = eid
	case string:
		e, err = NewEndpointID(eid)
	default:
		err = fmt.Errorf("BundleBuilder: %T is neither an EndpointID nor a string", eid)
	}

	return
}

// bldrParseLifetime returns a milliseconds timestamp for a given millisecond
// timestamp (uint64 or int), a time.Duration or a duration string, e.g., "60m".
func bldrParseLifetime(duration interface{}) (ms uint64, err error) {
	switch duration := duration.(type) {
	case uint64:
		ms = duration
	case int:
		if duration < 0 {
			err = fmt.Errorf("BundleBuilder: lifetime %d is negative", duration)
		} else {
			ms = uint64(duration)
		}
	case time.Duration:
		if duration < 0 {
			err = fmt.Errorf("BundleBuilder: lifetime %v is negative", duration)
		} else {
			ms = uint64(duration.Milliseconds())
		}
	case string:
		if dur, durErr := time.ParseDuration(duration); durErr != nil {
			err = durErr
		} else if dur < 0 {
			err = fmt.Errorf("BundleBuilder: lifetime %v is negative", dur)
		} else {
			ms = uint64(dur.Milliseconds())
		}
	default:
		err = fmt.Errorf("BundleBuilder: %T is an unsupported lifetime type", duration)
	}

	return
}

// Source sets the bundle's source node, given as an EndpointID or a string.
func (bldr *BundleBuilder) Source(eid interface{}) *BundleBuilder {
	if bldr.err != nil {
		return bldr
	}

	if e, err := bldrParseEndpoint(eid); err != nil {
		bldr.err = err
	} else {
		bldr.primary.SourceNode = e
	}

	return bldr
}

// Destination sets the bundle's destination, given as an EndpointID or a
// string.
func (bldr *BundleBuilder) Destination(eid interface{}) *BundleBuilder {
	if bldr.err != nil {
		return bldr
	}

	if e, err := bldrParseEndpoint(eid); err != nil {
		bldr.err = err
	} else {
		bldr.primary.Destination = e
	}

	return bldr
}

// ReportTo sets the bundle's report-to endpoint, given as an EndpointID or a
// string. Without an explicit report-to, Build falls back to the source node.
func (bldr *BundleBuilder) ReportTo(eid interface{}) *BundleBuilder {
	if bldr.err != nil {
		return bldr
	}

	if e, err := bldrParseEndpoint(eid); err != nil {
		bldr.err = err
	} else {
		bldr.primary.ReportTo = e
	}

	return bldr
}

// CreationTimestampEpoch sets the bundle's creation timestamp to the epoch,
// indicating the lack of an accurate clock.
func (bldr *BundleBuilder) CreationTimestampEpoch() *BundleBuilder {
	if bldr.err == nil {
		bldr.primary.CreationTimestamp = NewCreationTimestamp(DtnTimeEpoch, 0)
	}
	return bldr
}

// CreationTimestampNow sets the bundle's creation timestamp to the builder's
// clock's current time. If the clock reports no reliable time, the timestamp
// falls back to the epoch.
func (bldr *BundleBuilder) CreationTimestampNow() *BundleBuilder {
	if bldr.err != nil {
		return bldr
	}

	if now, ok := bldr.clock.Now(); ok {
		bldr.primary.CreationTimestamp = NewCreationTimestamp(now, 0)
	} else {
		bldr.primary.CreationTimestamp = NewCreationTimestamp(DtnTimeEpoch, 0)
	}

	return bldr
}

// CreationTimestampTime sets the bundle's creation timestamp to a given time.
func (bldr *BundleBuilder) CreationTimestampTime(t time.Time) *BundleBuilder {
	if bldr.err == nil {
		bldr.primary.CreationTimestamp = NewCreationTimestamp(DtnTimeFromTime(t), 0)
	}
	return bldr
}

// SequenceNumber sets the bundle's creation timestamp sequence number.
func (bldr *BundleBuilder) SequenceNumber(sequence uint64) *BundleBuilder {
	if bldr.err == nil {
		bldr.primary.CreationTimestamp[1] = sequence
	}
	return bldr
}

// Lifetime sets the bundle's lifetime, given in milliseconds (uint64 or int),
// as a time.Duration or as a duration string, e.g., "30m" or "1h".
func (bldr *BundleBuilder) Lifetime(duration interface{}) *BundleBuilder {
	if bldr.err != nil {
		return bldr
	}

	if ms, err := bldrParseLifetime(duration); err != nil {
		bldr.err = err
	} else {
		bldr.primary.Lifetime = ms
	}

	return bldr
}

// BundleCtrlFlags sets the bundle processing control flags.
func (bldr *BundleBuilder) BundleCtrlFlags(bcf BundleControlFlags) *BundleBuilder {
	if bldr.err == nil {
		bldr.primary.BundleControlFlags = bcf
	}
	return bldr
}

// PayloadBlock adds a Payload Block with the given data to this bundle. Its
// block number is fixed, so this method must be called at most once.
func (bldr *BundleBuilder) PayloadBlock(data []byte) *BundleBuilder {
	if bldr.err != nil {
		return bldr
	}

	for _, cb := range bldr.canonicals {
		if cb.BlockNumber == payloadBlockNumber {
			bldr.err = fmt.Errorf("BundleBuilder: a Payload Block is already present")
			return bldr
		}
	}

	bldr.canonicals = append(bldr.canonicals, NewPayloadBlock(0, data))
	return bldr
}

// BlockControlFlags sets the block processing control flags of the bundle's
// Payload Block, which therefore must have been added before.
func (bldr *BundleBuilder) BlockControlFlags(bcf BlockControlFlags) *BundleBuilder {
	if bldr.err != nil {
		return bldr
	}

	for i := range bldr.canonicals {
		if bldr.canonicals[i].BlockNumber == payloadBlockNumber {
			bldr.canonicals[i].BlockControlFlags = bcf
			return bldr
		}
	}

	bldr.err = fmt.Errorf("BundleBuilder: no Payload Block is present")
	return bldr
}
