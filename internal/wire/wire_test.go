package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func TestEntryRoundTrip(t *testing.T) {
	exp := time.Unix(1_700_000_000, 123456789)
	cases := [][]byte{nil, []byte("hello"), {0, 1, 2, 3, 4}}
	for _, payload := range cases {
		enc := EncodeEntry(exp, payload)
		gotExp, gotPayload, err := DecodeEntry(enc)
		if err != nil {
			t.Fatalf("DecodeEntry: %v", err)
		}
		if !gotExp.Equal(exp) {
			t.Fatalf("expiresAt mismatch: got %v want %v", gotExp, exp)
		}
		if !bytes.Equal(gotPayload, payload) {
			t.Fatalf("payload mismatch: got %x want %x", gotPayload, payload)
		}
	}
}

func TestEntryRejectsTrailingBytes(t *testing.T) {
	enc := EncodeEntry(time.Now(), []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, _, err := DecodeEntry(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestEntryCorruptHeaders(t *testing.T) {
	enc := EncodeEntry(time.Now(), []byte("abc"))

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, _, err := DecodeEntry(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, _, err := DecodeEntry(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	badKind := append([]byte(nil), enc...)
	badKind[5] = kindEntry + 1
	if _, _, err := DecodeEntry(badKind); err == nil {
		t.Fatalf("expected error on bad kind")
	}

	// vlen claims more than present
	badLen := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(badLen[14:18], 1000)
	if _, _, err := DecodeEntry(badLen); err == nil {
		t.Fatalf("expected error on oversized vlen")
	}

	if _, _, err := DecodeEntry(enc[:hdrLen-1]); err == nil {
		t.Fatalf("expected error on short header")
	}
}
