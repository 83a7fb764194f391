// Package codec serializes snapshot entries for byte-oriented providers
// (see store/encoded). Every codec here round-trips store.Entry.
package codec

import "github.com/unkn0wn-root/pagesnap/store"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// EntryCodec is the codec shape store/encoded consumes.
type EntryCodec = Codec[store.Entry]
