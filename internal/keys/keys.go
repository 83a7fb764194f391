// Package keys owns the storage key layout shared by the store backends.
//
//	<prefix>:{<cursor>}:ids    sorted set, member = id, score = rank
//	<prefix>:{<cursor>}:meta   hash: total_count, stored_count
//	<prefix>:{<cursor>}:entry  framed blob (store/encoded)
//
// The braces are a Redis Cluster hash tag so both keys of a cursor share a slot.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
)

const DefaultPrefix = "pagesnap"

func IDs(prefix, cursorID string) string   { return base(prefix, cursorID) + ":ids" }
func Meta(prefix, cursorID string) string  { return base(prefix, cursorID) + ":meta" }
func Entry(prefix, cursorID string) string { return base(prefix, cursorID) + ":entry" }

func base(prefix, cursorID string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ":{" + cursorID + "}"
}

// Redact returns a short, stable digest of a cursor id or key for logs.
func Redact(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}
