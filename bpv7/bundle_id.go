package bpv7

import "fmt"

// BundleID identifies a bundle by its source node and creation timestamp.
// RFC 9171, section 4.2.7 promises this tuple to be unique for each bundle
// from the same source, as long as the source ticks its sequence number.
type BundleID struct {
	SourceNode EndpointID
	Timestamp  CreationTimestamp
}

func (bid BundleID) String() string {
	return fmt.Sprintf("%v-%d-%d",
		bid.SourceNode, bid.Timestamp.DtnTime(), bid.Timestamp.SequenceNumber())
}
