package codec

import (
	"math"

	"github.com/fxamacker/cbor/v2"
)

// CBOROptions tunes NewCBOR.
type CBOROptions struct {
	// Deterministic selects RFC 8949 Core Deterministic encoding, so equal
	// entries produce equal blobs. Otherwise PreferredUnsortedEncOptions.
	Deterministic bool

	// MaxIDs bounds the array length the decoder accepts. It should match the
	// store's Limits.MaxIDs; 0 lifts the library's default cap of 131072.
	MaxIDs int
}

// CBOR serializes values using fxamacker/cbor. store.Entry carries keyasint
// tags, so an entry encodes as a small int-keyed map.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](o CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if o.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}

	do := cbor.DecOptions{
		MaxArrayElements: math.MaxInt32,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
	}
	if o.MaxIDs > 0 {
		do.MaxArrayElements = max(o.MaxIDs, 16)
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error. Meant for tests.
func MustCBOR[V any](o CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](o)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
