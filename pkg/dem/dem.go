// Package dem implements the two data encapsulation mechanisms used by
// the seal hybrid engine: AES-256-GCM with a fixed IV, and a custom
// HMAC-SHA3-256-CTR authenticated mode.
package dem

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/subtle"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/sha3"
)

// ErrAuthenticationFailure is returned when a ciphertext fails to
// authenticate, for either DEM variant.
var ErrAuthenticationFailure = errors.New("dem: authentication failure")

// FixedGCMIV is the constant 16-byte IV used by every AES-256-GCM
// invocation. Safe only because the outer protocol guarantees each DEM
// key is used to encrypt exactly one message; reusing a key across
// objects is a critical vulnerability the spec does not
// machine-enforce (see SPEC_FULL.md Open Question resolutions).
var FixedGCMIV = [16]byte{
	0x8a, 0x37, 0x99, 0xfd, 0xc6, 0x2e, 0x79, 0xdb,
	0xa0, 0x80, 0x59, 0x07, 0xd6, 0x9c, 0x94, 0xdc,
}

// Aes256GCMEncrypt encrypts msg under key with the fixed IV, binding
// aad via AES-GCM's associated-data mechanism.
func Aes256GCMEncrypt(msg, aad, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(FixedGCMIV))
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, FixedGCMIV[:], msg, aad), nil
}

// Aes256GCMDecrypt decrypts ct under key and aad, failing with
// ErrAuthenticationFailure if the tag does not verify.
func Aes256GCMDecrypt(ct, aad, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(FixedGCMIV))
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, FixedGCMIV[:], ct, aad)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}
	return pt, nil
}

// DeriveTagged derives a purpose-tagged 32-byte key from a base key
// via HMAC-SHA3-256(baseKey, [tag]), the key-derivation primitive
// shared by every purpose-specific key the seal engine derives.
func DeriveTagged(baseKey [32]byte, tag byte) [32]byte {
	var out [32]byte
	copy(out[:], hmacSHA3256(baseKey[:], []byte{tag}))
	return out
}

func hmacSHA3256(key, msg []byte) []byte {
	mac := hmac.New(sha3.New256, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func bcsU64(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

// Hmac256CTREncrypt encrypts msg under the 32-byte master key K and
// binds aad via a length-prefixed MAC, per spec §4.5:
//
//	k1 = HMAC-SHA3-256(K, 0x01); k2 = HMAC-SHA3-256(K, 0x02)
//	keystream block i = HMAC-SHA3-256(k1, bcs_u64(i))
//	ct = msg XOR keystream
//	mac = HMAC-SHA3-256(k2, bcs_u64(len(aad)) || aad || ct)
func Hmac256CTREncrypt(msg, aad, key []byte) (ct []byte, mac [32]byte, err error) {
	k1 := hmacSHA3256(key, []byte{0x01})
	k2 := hmacSHA3256(key, []byte{0x02})

	ct = ctrKeystreamXor(k1, msg)

	macInput := make([]byte, 0, 8+len(aad)+len(ct))
	macInput = append(macInput, bcsU64(uint64(len(aad)))...)
	macInput = append(macInput, aad...)
	macInput = append(macInput, ct...)
	copy(mac[:], hmacSHA3256(k2, macInput))
	return ct, mac, nil
}

// Hmac256CTRDecrypt verifies mac in constant time before decrypting.
func Hmac256CTRDecrypt(ct []byte, mac [32]byte, aad, key []byte) ([]byte, error) {
	k1 := hmacSHA3256(key, []byte{0x01})
	k2 := hmacSHA3256(key, []byte{0x02})

	macInput := make([]byte, 0, 8+len(aad)+len(ct))
	macInput = append(macInput, bcsU64(uint64(len(aad)))...)
	macInput = append(macInput, aad...)
	macInput = append(macInput, ct...)
	expected := hmacSHA3256(k2, macInput)

	if subtle.ConstantTimeCompare(expected, mac[:]) != 1 {
		return nil, ErrAuthenticationFailure
	}
	return ctrKeystreamXor(k1, ct), nil
}

func ctrKeystreamXor(k1, msg []byte) []byte {
	out := make([]byte, len(msg))
	const blockSize = 32
	for i := 0; i*blockSize < len(msg); i++ {
		block := hmacSHA3256(k1, bcsU64(uint64(i)))
		start := i * blockSize
		end := start + blockSize
		if end > len(msg) {
			end = len(msg)
		}
		for j := start; j < end; j++ {
			out[j] = msg[j] ^ block[j-start]
		}
	}
	return out
}
