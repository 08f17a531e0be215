// Package ibe implements Boneh–Franklin identity-based encryption over
// BLS12-381: master/public key generation, identity-based key
// extraction and verification, batched deterministic encryption, and
// proof of possession.
package ibe

import (
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/sealhq/core/pkg/curve"
)

// ErrInvalidInput is returned for malformed inputs or failed nonce
// verification.
var ErrInvalidInput = errors.New("ibe: invalid input")

// hashToG1DST is the ciphersuite tag used for the standard
// hash-to-curve suite backing H1. It is independent of the outer
// protocol's full-identity domain separation tag.
const hashToG1DST = "BLS12381G1_XMD:SHA-256_SSWU_RO_"

// KeySize is the width in bytes of plaintexts/ciphertexts/keys this
// package operates on.
const KeySize = 32

type (
	MasterKey = curve.Scalar
	PublicKey = curve.G2
	UserSecretKey = curve.G1
	Nonce = curve.G2
	Randomness = curve.Scalar
	Plaintext = [KeySize]byte
	Ciphertext = [KeySize]byte
)

// Info identifies a single recipient within a batched encryption: the
// server's object id and its assigned share index.
type Info struct {
	ObjectID [32]byte
	Index    byte
}

// ProofOfPossession proves a master key's holder controls the
// corresponding public key, without revealing the master key.
type ProofOfPossession = curve.G1

// H1 hashes an arbitrary identity byte string to a G1 point using the
// standard hash-to-curve suite.
func H1(id []byte) (curve.G1, error) {
	return curve.HashToG1(id, []byte(hashToG1DST))
}

// GenerateKeyPair samples a fresh master key and its public key.
func GenerateKeyPair() (MasterKey, PublicKey, error) {
	msk, err := curve.RandomScalar()
	if err != nil {
		return curve.Scalar{}, curve.G2{}, err
	}
	return msk, PublicKeyFromMasterKey(msk), nil
}

// PublicKeyFromMasterKey computes mpk = g2 * msk.
func PublicKeyFromMasterKey(msk MasterKey) PublicKey {
	return curve.G2Generator().ScalarMul(msk)
}

// Extract derives id's user secret key: usk = H1(id) * msk.
func Extract(msk MasterKey, id []byte) (UserSecretKey, error) {
	gid, err := H1(id)
	if err != nil {
		return curve.G1{}, err
	}
	return gid.ScalarMul(msk), nil
}

// VerifyUserSecretKey checks e(usk, g2) == e(H1(id), mpk).
func VerifyUserSecretKey(usk UserSecretKey, id []byte, mpk PublicKey) (bool, error) {
	gid, err := H1(id)
	if err != nil {
		return false, err
	}
	lhs, err := curve.Pairing(usk, curve.G2Generator())
	if err != nil {
		return false, err
	}
	rhs, err := curve.Pairing(gid, mpk)
	if err != nil {
		return false, err
	}
	return lhs.Bytes() == rhs.Bytes(), nil
}

// EncryptBatchedDeterministic encrypts plaintexts[i] for recipient
// pks[i]/infos[i] under a single shared randomness r, as described in
// spec §4.4: the nonce and gid_r are computed once and reused across
// all recipients.
func EncryptBatchedDeterministic(r Randomness, plaintexts []Plaintext, pks []PublicKey, id []byte, infos []Info) (Nonce, []Ciphertext, error) {
	if len(plaintexts) != len(pks) || len(plaintexts) != len(infos) {
		return curve.G2{}, nil, ErrInvalidInput
	}
	gid, err := H1(id)
	if err != nil {
		return curve.G2{}, nil, err
	}
	nonce := curve.G2Generator().ScalarMul(r)
	gidR := gid.ScalarMul(r)

	out := make([]Ciphertext, len(plaintexts))
	for i := range plaintexts {
		gt, err := curve.Pairing(gidR, pks[i])
		if err != nil {
			return curve.G2{}, nil, err
		}
		k, err := KDF(gt, nonce, gid, infos[i])
		if err != nil {
			return curve.G2{}, nil, err
		}
		out[i] = curve.Xor(k, plaintexts[i])
	}
	return nonce, out, nil
}

// Decrypt recovers the plaintext for one recipient:
// K = KDF(e(usk, nonce), nonce, H1(id), info); plaintext = K XOR ct.
func Decrypt(nonce Nonce, ct Ciphertext, usk UserSecretKey, id []byte, info Info) (Plaintext, error) {
	gid, err := H1(id)
	if err != nil {
		return Plaintext{}, err
	}
	gt, err := curve.Pairing(usk, nonce)
	if err != nil {
		return Plaintext{}, err
	}
	k, err := KDF(gt, nonce, gid, info)
	if err != nil {
		return Plaintext{}, err
	}
	return curve.Xor(k, ct), nil
}

// VerifyNonce checks g2 * r == nonce.
func VerifyNonce(r Randomness, nonce Nonce) bool {
	return curve.G2Generator().ScalarMul(r).Equal(nonce)
}

// DecryptDeterministic recovers the plaintext via the encryption path
// (recomputing gid_r from r and pk rather than pairing with a usk);
// used for share-consistency checks once r has been recovered.
func DecryptDeterministic(r Randomness, ct Ciphertext, pk PublicKey, id []byte, info Info) (Plaintext, error) {
	gid, err := H1(id)
	if err != nil {
		return Plaintext{}, err
	}
	nonce := curve.G2Generator().ScalarMul(r)
	gidR := gid.ScalarMul(r)
	gt, err := curve.Pairing(gidR, pk)
	if err != nil {
		return Plaintext{}, err
	}
	k, err := KDF(gt, nonce, gid, info)
	if err != nil {
		return Plaintext{}, err
	}
	return curve.Xor(k, ct), nil
}

// KDF derives a 32-byte key from a pairing output, the nonce, the
// hashed identity, and per-recipient info, via HKDF-SHA3-256 with an
// empty salt. IKM = GT_bytes(576) || G2_bytes(96) || G1_bytes(48);
// info = object_id(32) || index(1). The layout and lengths are
// bit-exact for cross-language reproducibility (spec §8 item 1).
func KDF(pairingOutput curve.GT, nonce Nonce, gid curve.G1, info Info) ([KeySize]byte, error) {
	gtBytes := pairingOutput.Bytes()
	nonceBytes := nonce.Bytes()
	gidBytes := gid.Bytes()

	ikm := make([]byte, 0, len(gtBytes)+len(nonceBytes)+len(gidBytes))
	ikm = append(ikm, gtBytes[:]...)
	ikm = append(ikm, nonceBytes[:]...)
	ikm = append(ikm, gidBytes[:]...)

	infoBytes := make([]byte, 0, 33)
	infoBytes = append(infoBytes, info.ObjectID[:]...)
	infoBytes = append(infoBytes, info.Index)

	reader := hkdf.New(sha3.New256, ikm, nil, infoBytes)
	var out [KeySize]byte
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		return [KeySize]byte{}, err
	}
	return out, nil
}

// EncryptRandomness one-time-pads r under a key derived from the base
// key (purpose tag EncryptedRandomness), returning the encrypted
// randomness stored alongside the ciphertext.
func EncryptRandomness(r Randomness, key [KeySize]byte) [KeySize]byte {
	return curve.Xor(key, r.Bytes())
}

// DecryptAndVerifyNonce XOR-decrypts the encrypted randomness under
// derivedKey and checks it is consistent with nonce.
func DecryptAndVerifyNonce(encryptedRandomness [KeySize]byte, derivedKey [KeySize]byte, nonce Nonce) (Randomness, error) {
	rBytes := curve.Xor(encryptedRandomness, derivedKey)
	var r Randomness
	if err := r.SetBytes(rBytes[:]); err != nil {
		return curve.Scalar{}, err
	}
	if !VerifyNonce(r, nonce) {
		return curve.Scalar{}, ErrInvalidInput
	}
	return r, nil
}

// CreateProofOfPossession computes pop = H1(DST_POP || bcs(mpk) || message) * msk.
func CreateProofOfPossession(msk MasterKey, dstPOP string, mpkBCS []byte, message []byte) (ProofOfPossession, error) {
	fullMsg := make([]byte, 0, len(dstPOP)+len(mpkBCS)+len(message))
	fullMsg = append(fullMsg, dstPOP...)
	fullMsg = append(fullMsg, mpkBCS...)
	fullMsg = append(fullMsg, message...)
	gid, err := H1(fullMsg)
	if err != nil {
		return curve.G1{}, err
	}
	return gid.ScalarMul(msk), nil
}
