package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/unkn0wn-root/pagesnap/store"
)

// Field numbers of the Entry wire message:
//
//	message Entry {
//	  repeated string ids          = 1;
//	  int64           total_count  = 2;
//	  int64           stored_count = 3;
//	}
const (
	fieldIDs         protowire.Number = 1
	fieldTotalCount  protowire.Number = 2
	fieldStoredCount protowire.Number = 3
)

var errProtoEntry = errors.New("codec: malformed protobuf entry")

// ProtoEntry encodes store.Entry in protobuf wire format without generated
// code, so snapshots can be read by any protobuf-speaking consumer.
// Unknown fields are skipped on decode. Both counts are always encoded, and
// Decode rejects a message that lacks either or whose stored_count differs
// from the number of ids; a payload cut at a field boundary is otherwise
// still a valid message.
type ProtoEntry struct{}

var _ EntryCodec = ProtoEntry{}

func (ProtoEntry) Encode(e store.Entry) ([]byte, error) {
	size := 0
	for _, id := range e.IDs {
		size += protowire.SizeTag(fieldIDs) + protowire.SizeBytes(len(id))
	}
	b := make([]byte, 0, size+24)
	for _, id := range e.IDs {
		b = protowire.AppendTag(b, fieldIDs, protowire.BytesType)
		b = protowire.AppendString(b, id)
	}
	b = protowire.AppendTag(b, fieldTotalCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.TotalCount))
	b = protowire.AppendTag(b, fieldStoredCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.StoredCount))
	return b, nil
}

func (ProtoEntry) Decode(b []byte) (store.Entry, error) {
	var e store.Entry
	var seenTotal, seenStored bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return store.Entry{}, fmt.Errorf("%w: %v", errProtoEntry, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldIDs && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return store.Entry{}, fmt.Errorf("%w: ids: %v", errProtoEntry, protowire.ParseError(n))
			}
			e.IDs = append(e.IDs, v)
			b = b[n:]
		case (num == fieldTotalCount || num == fieldStoredCount) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return store.Entry{}, fmt.Errorf("%w: counts: %v", errProtoEntry, protowire.ParseError(n))
			}
			if num == fieldTotalCount {
				e.TotalCount, seenTotal = int64(v), true
			} else {
				e.StoredCount, seenStored = int(int64(v)), true
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return store.Entry{}, fmt.Errorf("%w: field %d: %v", errProtoEntry, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !seenTotal || !seenStored {
		return store.Entry{}, fmt.Errorf("%w: missing counts", errProtoEntry)
	}
	if e.StoredCount != len(e.IDs) {
		return store.Entry{}, fmt.Errorf("%w: stored_count %d, have %d ids", errProtoEntry, e.StoredCount, len(e.IDs))
	}
	return e, nil
}
