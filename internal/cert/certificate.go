// Package cert validates the session certificate a client presents
// alongside a key-fetch request: a short-lived session public key,
// signed by the user's on-chain address, bounding how long that
// session key may be used to authorize requests.
package cert

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secp256k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SessionKeyTTLMaxMinutes bounds how long a session certificate may
// claim to be valid for.
const SessionKeyTTLMaxMinutes = 10

// ErrInvalidCertificate covers an expired, not-yet-valid, or
// overlong-TTL certificate.
var ErrInvalidCertificate = errors.New("cert: invalid certificate")

// ErrInvalidSignature covers a user signature that fails to verify
// over the certificate's canonical message.
var ErrInvalidSignature = errors.New("cert: invalid user signature")

// ErrInvalidSessionSignature covers a session-key signature that
// fails to verify over the signed request.
var ErrInvalidSessionSignature = errors.New("cert: invalid session signature")

// SchemeKind selects which signature scheme a user's on-chain address
// corresponds to.
type SchemeKind byte

const (
	SchemeEd25519 SchemeKind = iota
	SchemeSecp256k1
	SchemeSecp256r1
)

// Address is an opaque on-chain account identifier (32 bytes, as
// used to address a signature's signer).
type Address [32]byte

// Certificate is the session-delegation object a user signs once and
// reuses for every request within its TTL. UserPublicKey is the raw
// public key recovered from the signature envelope; VerifyUserSignature
// checks the signature against it directly rather than deriving it
// from User, which callers are expected to have cross-checked against
// the chain's address-derivation rule for Scheme before trusting the
// certificate.
type Certificate struct {
	User           Address
	UserPublicKey  []byte
	SessionVK      ed25519.PublicKey
	CreationTimeMs uint64
	TTLMin         uint16
	Scheme         SchemeKind
	Signature      []byte
}

// Validate checks the certificate's expiration window against nowMs
// (the caller's current epoch time in milliseconds): the TTL must not
// exceed SessionKeyTTLMaxMinutes, creation time must not be in the
// future, and the window [creationTime, creationTime+ttl] must cover
// now.
func Validate(c Certificate, nowMs uint64) error {
	ttlMs := uint64(c.TTLMin) * 60_000
	if c.TTLMin > SessionKeyTTLMaxMinutes {
		return ErrInvalidCertificate
	}
	if c.CreationTimeMs > nowMs {
		return ErrInvalidCertificate
	}
	if nowMs < ttlMs {
		return ErrInvalidCertificate
	}
	if nowMs-ttlMs > c.CreationTimeMs {
		return ErrInvalidCertificate
	}
	return nil
}

// VerifyUserSignature checks sig over msg against the scheme implied
// by user/scheme. pubKey is the raw public key bytes recovered from
// the on-chain signature envelope (Ed25519: 32 bytes; Secp256k1:
// 33-byte compressed point; Secp256r1: 65-byte uncompressed point).
func VerifyUserSignature(scheme SchemeKind, pubKey, msg, sig []byte) error {
	switch scheme {
	case SchemeEd25519:
		if len(pubKey) != ed25519.PublicKeySize {
			return ErrInvalidSignature
		}
		if !ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig) {
			return ErrInvalidSignature
		}
		return nil
	case SchemeSecp256k1:
		return verifySecp256k1(pubKey, msg, sig)
	case SchemeSecp256r1:
		return verifySecp256r1(pubKey, msg, sig)
	default:
		return ErrInvalidSignature
	}
}

func verifySecp256k1(pubKeyBytes, msg, sig []byte) error {
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return ErrInvalidSignature
	}
	parsed, err := secp256k1ecdsa.ParseDERSignature(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	digest := sha256.Sum256(msg)
	if !parsed.Verify(digest[:], pubKey) {
		return ErrInvalidSignature
	}
	return nil
}

func verifySecp256r1(pubKeyBytes, msg, sig []byte) error {
	curve := elliptic.P256()
	if len(pubKeyBytes) != 65 || pubKeyBytes[0] != 0x04 {
		return ErrInvalidSignature
	}
	x := new(big.Int).SetBytes(pubKeyBytes[1:33])
	y := new(big.Int).SetBytes(pubKeyBytes[33:65])
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	if len(sig) != 64 {
		return ErrInvalidSignature
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	digest := sha256.Sum256(msg)
	if !ecdsa.Verify(pub, digest[:], r, s) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifySessionSignature checks a session-key signature over a signed
// request; the session key is always Ed25519.
func VerifySessionSignature(sessionVK ed25519.PublicKey, msg, sig []byte) error {
	if !ed25519.Verify(sessionVK, msg, sig) {
		return ErrInvalidSessionSignature
	}
	return nil
}
