// Package signedmsg builds the canonical byte strings a user session
// certificate and a per-request session signature are computed over.
package signedmsg

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sealhq/core/internal/bcs"
)

// Message builds the canonical certificate message:
//
//	Accessing keys of package 0x{hex(pkgID)} for {ttlMin} mins from {YYYY-MM-DD HH:MM:SS} UTC, session key {base64(sessionVK)}
//
// pkgID must be exactly 32 bytes; creationTimeMs is Unix epoch
// milliseconds.
func Message(pkgID [32]byte, sessionVK []byte, creationTimeMs uint64, ttlMin uint16) string {
	ts := time.UnixMilli(int64(creationTimeMs)).UTC().Format("2006-01-02 15:04:05")
	return fmt.Sprintf(
		"Accessing keys of package 0x%x for %d mins from %s UTC, session key %s",
		pkgID[:], ttlMin, ts, base64.StdEncoding.EncodeToString(sessionVK),
	)
}

// Request builds the canonical signed-request byte string a session
// key signs to authorize a single fetch_key call. ptb, encKey, and
// encVerificationKey must each already be the BCS encoding of their
// respective value (a ProgrammableTransaction, an ElGamal public key,
// and a verification key); Request then serializes the three-field
// RequestFormat struct over those pre-encoded byte strings, so each
// is individually length-prefixed.
func Request(ptb, encKey, encVerificationKey []byte) []byte {
	w := bcs.NewWriter()
	w.WriteBytes(ptb)
	w.WriteBytes(encKey)
	w.WriteBytes(encVerificationKey)
	return w.Bytes()
}
