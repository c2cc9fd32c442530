package state

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Record keys are derived deterministically from a record's identity fields,
// independent of any storage technology. Fields are length-prefixed so that
// distinct inputs can never collide by concatenation.
const (
	tableKeyDomain   = "goldenflop/table/v1"
	sessionKeyDomain = "goldenflop/session/v1"
)

func deriveKey(domain string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	var lenBuf [4]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p)))
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TableKey addresses the single table owned by creator.
func TableKey(creator string) string {
	return deriveKey(tableKeyDomain, creator)
}

// SessionKey addresses the single session an authority may hold at a table.
func SessionKey(authority string, tableKey string) string {
	return deriveKey(sessionKeyDomain, authority, tableKey)
}
