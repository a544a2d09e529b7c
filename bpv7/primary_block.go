package bpv7

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dtn7/cboring"
	"github.com/hashicorp/go-multierror"
)

const dtnVersion uint64 = 7

// PrimaryBlock is a representation of the primary bundle block as defined in
// RFC 9171, section 4.3.1. Its fields are listed in their fixed wire order;
// a peer parses them positionally. A PrimaryBlock is immutable once created.
type PrimaryBlock struct {
	Version            uint64
	BundleControlFlags BundleControlFlags
	CRCType            CRCType
	Destination        EndpointID
	SourceNode         EndpointID
	ReportTo           EndpointID
	CreationTimestamp  CreationTimestamp
	Lifetime           uint64
	FragmentOffset     uint64
	TotalDataLength    uint64
}

// NewPrimaryBlock creates a new primary block with the given parameters. All
// other fields are set to default values; the report-to endpoint becomes the
// source node. The lifetime is passed in milliseconds.
func NewPrimaryBlock(bundleControlFlags BundleControlFlags, destination EndpointID, sourceNode EndpointID, creationTimestamp CreationTimestamp, lifetime uint64) PrimaryBlock {
	return PrimaryBlock{
		Version:            dtnVersion,
		BundleControlFlags: bundleControlFlags,
		CRCType:            CRCNo,
		Destination:        destination,
		SourceNode:         sourceNode,
		ReportTo:           sourceNode,
		CreationTimestamp:  creationTimestamp,
		Lifetime:           lifetime,
	}
}

// HasFragmentation returns true if the bundle processing control flags
// indicate a fragmented bundle. In this case the FragmentOffset and
// TotalDataLength fields become relevant.
func (pb PrimaryBlock) HasFragmentation() bool {
	return pb.BundleControlFlags.Has(IsFragment)
}

// MarshalCbor writes the CBOR representation of a PrimaryBlock.
func (pb *PrimaryBlock) MarshalCbor(w io.Writer) error {
	var blockLen uint64 = 8
	if pb.HasFragmentation() {
		blockLen = 10
	}

	if err := cboring.WriteArrayLength(blockLen, w); err != nil {
		return err
	}

	fields := []uint64{dtnVersion, uint64(pb.BundleControlFlags), uint64(pb.CRCType)}
	for _, f := range fields {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}

	eids := []*EndpointID{&pb.Destination, &pb.SourceNode, &pb.ReportTo}
	for _, eid := range eids {
		if err := cboring.Marshal(eid, w); err != nil {
			return fmt.Errorf("PrimaryBlock: EndpointID failed: %w", err)
		}
	}

	if err := cboring.Marshal(&pb.CreationTimestamp, w); err != nil {
		return fmt.Errorf("PrimaryBlock: CreationTimestamp failed: %w", err)
	}

	if err := cboring.WriteUInt(pb.Lifetime, w); err != nil {
		return err
	}

	if pb.HasFragmentation() {
		for _, f := range []uint64{pb.FragmentOffset, pb.TotalDataLength} {
			if err := cboring.WriteUInt(f, w); err != nil {
				return err
			}
		}
	}

	return nil
}

// UnmarshalCbor reads the CBOR representation of a PrimaryBlock.
func (pb *PrimaryBlock) UnmarshalCbor(r io.Reader) error {
	var blockLen uint64
	if bl, err := cboring.ReadArrayLength(r); err != nil {
		return fmt.Errorf("PrimaryBlock: %v: %w", err, ErrMalformedPrimaryBlock)
	} else if bl != 8 && bl != 10 {
		return fmt.Errorf("PrimaryBlock: expected array of 8 or 10 elements, got %d: %w",
			bl, ErrMalformedPrimaryBlock)
	} else {
		blockLen = bl
	}

	if version, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("PrimaryBlock: version: %v: %w", err, ErrMalformedPrimaryBlock)
	} else if version != dtnVersion {
		return fmt.Errorf("PrimaryBlock: version %d instead of %d: %w",
			version, dtnVersion, ErrUnsupportedVersion)
	} else {
		pb.Version = version
	}

	if bcf, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("PrimaryBlock: control flags: %v: %w", err, ErrMalformedPrimaryBlock)
	} else {
		pb.BundleControlFlags = BundleControlFlags(bcf)
	}

	if crcT, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("PrimaryBlock: crc type: %v: %w", err, ErrMalformedPrimaryBlock)
	} else if CRCType(crcT) != CRCNo {
		return fmt.Errorf("PrimaryBlock: crc type %v: %w", CRCType(crcT), ErrUnsupportedCRC)
	} else {
		pb.CRCType = CRCType(crcT)
	}

	eids := []struct {
		name string
		eid  *EndpointID
	}{
		{"destination", &pb.Destination},
		{"source node", &pb.SourceNode},
		{"report to", &pb.ReportTo},
	}
	for _, e := range eids {
		if err := cboring.Unmarshal(e.eid, r); err != nil {
			return fmt.Errorf("PrimaryBlock: %s: %w", e.name, err)
		}
	}

	if err := cboring.Unmarshal(&pb.CreationTimestamp, r); err != nil {
		return fmt.Errorf("PrimaryBlock: creation timestamp: %w", err)
	}

	if lt, err := cboring.ReadUInt(r); err != nil {
		return fmt.Errorf("PrimaryBlock: lifetime: %v: %w", err, ErrMalformedPrimaryBlock)
	} else {
		pb.Lifetime = lt
	}

	if blockLen == 10 {
		for _, f := range []*uint64{&pb.FragmentOffset, &pb.TotalDataLength} {
			if x, err := cboring.ReadUInt(r); err != nil {
				return fmt.Errorf("PrimaryBlock: fragment fields: %v: %w", err, ErrMalformedPrimaryBlock)
			} else {
				*f = x
			}
		}
	}

	if pb.HasFragmentation() {
		return fmt.Errorf("PrimaryBlock: %w", ErrFragmentationUnsupported)
	} else if blockLen == 10 {
		return fmt.Errorf("PrimaryBlock: fragment fields are present, but the "+
			"is-fragment flag is unset: %w", ErrMalformedPrimaryBlock)
	}

	return nil
}

// MarshalJSON writes a JSON object representing this PrimaryBlock.
func (pb PrimaryBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		ControlFlags      BundleControlFlags `json:"bundleControlFlags"`
		Destination       string             `json:"destination"`
		Source            string             `json:"source"`
		ReportTo          string             `json:"reportTo"`
		CreationTimestamp CreationTimestamp  `json:"creationTimestamp"`
		Lifetime          uint64             `json:"lifetime"`
	}{
		ControlFlags:      pb.BundleControlFlags,
		Destination:       pb.Destination.String(),
		Source:            pb.SourceNode.String(),
		ReportTo:          pb.ReportTo.String(),
		CreationTimestamp: pb.CreationTimestamp,
		Lifetime:          pb.Lifetime,
	})
}

// CheckValid returns an array of errors for incorrect data.
func (pb PrimaryBlock) CheckValid() (errs error) {
	if pb.Version != dtnVersion {
		errs = multierror.Append(errs, fmt.Errorf(
			"PrimaryBlock: version %d instead of %d: %w", pb.Version, dtnVersion, ErrUnsupportedVersion))
	}

	if pb.CRCType != CRCNo {
		errs = multierror.Append(errs, fmt.Errorf(
			"PrimaryBlock: crc type %v: %w", pb.CRCType, ErrUnsupportedCRC))
	}

	if pb.HasFragmentation() {
		errs = multierror.Append(errs, fmt.Errorf(
			"PrimaryBlock: %w", ErrFragmentationUnsupported))
	}

	if bcfErr := pb.BundleControlFlags.CheckValid(); bcfErr != nil {
		errs = multierror.Append(errs, bcfErr)
	}

	if destErr := pb.Destination.CheckValid(); destErr != nil {
		errs = multierror.Append(errs, destErr)
	}

	if srcErr := pb.SourceNode.CheckValid(); srcErr != nil {
		errs = multierror.Append(errs, srcErr)
	}

	if rprtToErr := pb.ReportTo.CheckValid(); rprtToErr != nil {
		errs = multierror.Append(errs, rprtToErr)
	}

	// RFC 9171, section 4.2.3: if the bundle's source node is omitted, the
	// bundle must not be fragmented and no status reports may be requested.
	bpcfImpl := !(pb.SourceNode == DtnNone()) ||
		(pb.BundleControlFlags.Has(MustNotFragmented) &&
			!pb.BundleControlFlags.Has(StatusRequestReception) &&
			!pb.BundleControlFlags.Has(StatusRequestForward) &&
			!pb.BundleControlFlags.Has(StatusRequestDelivery) &&
			!pb.BundleControlFlags.Has(StatusRequestDeletion))
	if !bpcfImpl {
		errs = multierror.Append(errs, fmt.Errorf(
			"PrimaryBlock: source node is dtn:none, but the bundle could be "+
				"fragmented or status report flags are set: %w", ErrInvariantViolation))
	}

	return
}

func (pb PrimaryBlock) String() string {
	var b strings.Builder

	_, _ = fmt.Fprintf(&b, "version: %d, ", pb.Version)
	_, _ = fmt.Fprintf(&b, "bundle processing control flags: %b, ", pb.BundleControlFlags)
	_, _ = fmt.Fprintf(&b, "crc type: %v, ", pb.CRCType)
	_, _ = fmt.Fprintf(&b, "destination: %v, ", pb.Destination)
	_, _ = fmt.Fprintf(&b, "source node: %v, ", pb.SourceNode)
	_, _ = fmt.Fprintf(&b, "report to: %v, ", pb.ReportTo)
	_, _ = fmt.Fprintf(&b, "creation timestamp: %v, ", pb.CreationTimestamp)
	_, _ = fmt.Fprintf(&b, "lifetime: %d", pb.Lifetime)

	if pb.HasFragmentation() {
		_, _ = fmt.Fprintf(&b, ", fragment offset: %d, ", pb.FragmentOffset)
		_, _ = fmt.Fprintf(&b, "total data length: %d", pb.TotalDataLength)
	}

	return b.String()
}
