// Package bpv7 provides a library for interaction with Bundles as defined
// in the Bundle Protocol Version 7 (RFC 9171). This includes Bundle creation,
// serialization and deserialization.
//
// The easiest way to create new Bundles is to use the BundleBuilder.
//
//	bundle, err := bpv7.Builder().
//	  Source("dtn://src/").
//	  Destination("dtn://dest/").
//	  CreationTimestampNow().
//	  Lifetime("1h").
//	  PayloadBlock([]byte("hello world!")).
//	  Build()
//
// Both serializing and deserializing bundles into the CBOR is supported.
//
//	// An existing Bundle b1 is serialized. The new bundle b2 is created
//	// from this. A common bytes.Buffer will be used.
//	buff := new(bytes.Buffer)
//	err1 := b1.WriteBundle(buff)
//	b2, err2 := bpv7.ParseBundle(buff)
//
// This library only models the Primary Block and the Payload Block. Other
// extension block types, bundle fragmentation and CRC values are rejected
// with a descriptive error instead of being guessed around.
package bpv7
