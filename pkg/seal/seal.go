// Package seal implements the hybrid encryption engine tying together
// threshold secret sharing, identity-based encryption, and data
// encapsulation: Encrypt splits a random symmetric key across a set of
// key servers and seals the payload under it; Decrypt reverses that
// given enough user secret keys.
package seal

import (
	"crypto/rand"
	"errors"

	"github.com/sealhq/core/pkg/curve"
	"github.com/sealhq/core/pkg/dem"
	"github.com/sealhq/core/pkg/ibe"
	"github.com/sealhq/core/pkg/tss"
)

// KeySize is the width in bytes of the base symmetric key shared
// across servers and of every derived key.
const KeySize = 32

// DST is the domain separation tag folded into every full identity.
const DST = "SUI-SEAL-IBE-BLS12381-00"

// DSTProofOfPossession tags a key server's proof that it controls its
// published master key.
const DSTProofOfPossession = "SUI-SEAL-IBE-BLS12381-POP-00"

var (
	// ErrInvalidInput covers malformed arguments: bad threshold,
	// mismatched server/key counts, an unsupported object version, or
	// too few user secret keys. Wire decoding errors come from
	// UnmarshalEncryptedObject instead.
	ErrInvalidInput = errors.New("seal: invalid input")
	// ErrInconsistentShares is returned when check-share-consistency
	// detects a share that doesn't lie on the reconstructed polynomial.
	ErrInconsistentShares = errors.New("seal: inconsistent shares")
)

// ObjectID identifies an on-chain key server or package.
type ObjectID [32]byte

// KeyPurpose distinguishes the two keys derivable from a base key.
type KeyPurpose byte

const (
	KeyPurposeEncryptedRandomness KeyPurpose = 0
	KeyPurposeDEM                 KeyPurpose = 1
)

// CiphertextKind tags which DEM variant protects a payload.
type CiphertextKind byte

const (
	CiphertextAes256GCM CiphertextKind = iota
	CiphertextHmac256CTR
	CiphertextPlain
)

// Ciphertext is the sum type over the supported DEM outputs.
type Ciphertext struct {
	Kind CiphertextKind
	Blob []byte
	AAD  []byte
	HasAAD bool
	Mac  [KeySize]byte // only meaningful for CiphertextHmac256CTR
}

// EncryptionInput is the sum type over the supported plaintext inputs
// to Encrypt.
type EncryptionInput struct {
	Kind CiphertextKind
	Data []byte
	AAD  []byte
	HasAAD bool
}

// EncryptedObject is the self-contained wire object produced by
// Encrypt: the DEM ciphertext plus everything a client needs, given
// enough user secret keys, to recover the base key and decrypt it.
type EncryptedObject struct {
	Version       uint8
	PackageID     ObjectID
	ID            []byte
	Services      []ServiceShare
	Threshold     uint8
	EncryptedShares BonehFranklinEncryption
	Ciphertext    Ciphertext
}

// ServiceShare pairs a key server with the TSS share index assigned
// to it.
type ServiceShare struct {
	Service ObjectID
	Index   byte
}

// BonehFranklinEncryption is the only currently-defined IBEEncryptions
// variant: per-server IBE-encrypted TSS shares plus the shared nonce
// and encrypted randomness used to verify them.
type BonehFranklinEncryption struct {
	Nonce               ibe.Nonce
	EncryptedShares     [][KeySize]byte
	EncryptedRandomness [KeySize]byte
}

// IBEPublicKeys is the sum type over supported IBE public-key sets;
// BonehFranklinBLS12381 is the only variant.
type IBEPublicKeys struct {
	BonehFranklinBLS12381 []ibe.PublicKey
}

// IBEUserSecretKeys is the sum type over supported IBE user-secret-key
// sets, keyed by key-server object id.
type IBEUserSecretKeys struct {
	BonehFranklinBLS12381 map[ObjectID]ibe.UserSecretKey
}

// CreateFullID builds [len(DST)] || DST || packageID || id, the
// identity string hashed into G1 by every IBE operation.
func CreateFullID(packageID ObjectID, id []byte) []byte {
	fullID := make([]byte, 0, 1+len(DST)+len(packageID)+len(id))
	fullID = append(fullID, byte(len(DST)))
	fullID = append(fullID, DST...)
	fullID = append(fullID, packageID[:]...)
	fullID = append(fullID, id...)
	return fullID
}

// DeriveKey derives a purpose-tagged key from a base key via
// HMAC-SHA3-256(baseKey, [purpose]).
func DeriveKey(purpose KeyPurpose, baseKey [KeySize]byte) [KeySize]byte {
	return dem.DeriveTagged(baseKey, byte(purpose))
}

// Encrypt seals data for a set of key servers: it generates a random
// base key, encrypts the payload under a key derived from it, splits
// the base key via threshold secret sharing, and IBE-encrypts each
// share for its server. It returns the wire object and the derived
// DEM key (useful for EncryptionInput with Kind == CiphertextPlain,
// where the "ciphertext" is simply this key).
func Encrypt(packageID ObjectID, id []byte, keyServers []ObjectID, publicKeys IBEPublicKeys, threshold uint8, input EncryptionInput) (EncryptedObject, [KeySize]byte, error) {
	numShares := byte(len(keyServers))
	if threshold == 0 || threshold > numShares {
		return EncryptedObject{}, [KeySize]byte{}, ErrInvalidInput
	}
	if len(publicKeys.BonehFranklinBLS12381) != int(numShares) {
		return EncryptedObject{}, [KeySize]byte{}, ErrInvalidInput
	}

	var baseKey [KeySize]byte
	if err := randomBytes(baseKey[:]); err != nil {
		return EncryptedObject{}, [KeySize]byte{}, err
	}

	fullID := CreateFullID(packageID, id)
	demKey := DeriveKey(KeyPurposeDEM, baseKey)

	ciphertext, err := sealCiphertext(input, demKey)
	if err != nil {
		return EncryptedObject{}, [KeySize]byte{}, err
	}

	sharing, err := tss.Split(baseKey[:], int(threshold), int(numShares))
	if err != nil {
		return EncryptedObject{}, [KeySize]byte{}, err
	}

	services := make([]ServiceShare, numShares)
	for i, ks := range keyServers {
		services[i] = ServiceShare{Service: ks, Index: sharing.Indices[i]}
	}

	r, err := curve.RandomScalar()
	if err != nil {
		return EncryptedObject{}, [KeySize]byte{}, err
	}

	plaintexts := make([]ibe.Plaintext, numShares)
	infos := make([]ibe.Info, numShares)
	for i := range sharing.Shares {
		var pt ibe.Plaintext
		copy(pt[:], sharing.Shares[i])
		plaintexts[i] = pt
		infos[i] = ibe.Info{ObjectID: services[i].Service, Index: services[i].Index}
	}

	nonce, encShares, err := ibe.EncryptBatchedDeterministic(r, plaintexts, publicKeys.BonehFranklinBLS12381, fullID, infos)
	if err != nil {
		return EncryptedObject{}, [KeySize]byte{}, err
	}

	encryptedRandomness := ibe.EncryptRandomness(r, DeriveKey(KeyPurposeEncryptedRandomness, baseKey))

	obj := EncryptedObject{
		Version:   0,
		PackageID: packageID,
		ID:        id,
		Services:  services,
		Threshold: threshold,
		EncryptedShares: BonehFranklinEncryption{
			Nonce:               nonce,
			EncryptedShares:     encShares,
			EncryptedRandomness: encryptedRandomness,
		},
		Ciphertext: ciphertext,
	}
	return obj, demKey, nil
}

func sealCiphertext(input EncryptionInput, demKey [KeySize]byte) (Ciphertext, error) {
	aad := input.AAD
	switch input.Kind {
	case CiphertextAes256GCM:
		blob, err := dem.Aes256GCMEncrypt(input.Data, aad, demKey[:])
		if err != nil {
			return Ciphertext{}, err
		}
		return Ciphertext{Kind: CiphertextAes256GCM, Blob: blob, AAD: input.AAD, HasAAD: input.HasAAD}, nil
	case CiphertextHmac256CTR:
		blob, mac, err := dem.Hmac256CTREncrypt(input.Data, aad, demKey[:])
		if err != nil {
			return Ciphertext{}, err
		}
		return Ciphertext{Kind: CiphertextHmac256CTR, Blob: blob, AAD: input.AAD, HasAAD: input.HasAAD, Mac: mac}, nil
	case CiphertextPlain:
		return Ciphertext{Kind: CiphertextPlain}, nil
	default:
		return Ciphertext{}, ErrInvalidInput
	}
}

// Decrypt reconstructs the base key from the user secret keys provided
// (which must cover at least Threshold distinct services) and
// decrypts the wrapped payload. If publicKeys is non-nil, every share
// is additionally decrypted and checked for consistency with the
// reconstructed interpolating polynomial, detecting a misbehaving
// subset of key servers that would otherwise decrypt successfully with
// a wrong key.
func Decrypt(obj EncryptedObject, usks IBEUserSecretKeys, publicKeys *IBEPublicKeys) ([]byte, error) {
	if obj.Version != 0 {
		return nil, ErrInvalidInput
	}
	fullID := CreateFullID(obj.PackageID, obj.ID)

	if len(obj.EncryptedShares.EncryptedShares) != len(obj.Services) {
		return nil, ErrInvalidInput
	}

	var shares []tss.Share
	for i, svc := range obj.Services {
		usk, ok := usks.BonehFranklinBLS12381[svc.Service]
		if !ok {
			continue
		}
		info := ibe.Info{ObjectID: svc.Service, Index: svc.Index}
		pt, err := ibe.Decrypt(obj.EncryptedShares.Nonce, obj.EncryptedShares.EncryptedShares[i], usk, fullID, info)
		if err != nil {
			return nil, err
		}
		shares = append(shares, tss.Share{Index: svc.Index, Value: append([]byte(nil), pt[:]...)})
	}
	if len(shares) < int(obj.Threshold) {
		return nil, ErrInvalidInput
	}

	baseKeyBytes, err := tss.Combine(shares)
	if err != nil {
		return nil, err
	}
	var baseKey [KeySize]byte
	copy(baseKey[:], baseKeyBytes)

	if publicKeys != nil {
		if err := checkShareConsistency(obj, shares, fullID, baseKey, *publicKeys); err != nil {
			return nil, err
		}
	}

	demKey := DeriveKey(KeyPurposeDEM, baseKey)
	switch obj.Ciphertext.Kind {
	case CiphertextAes256GCM:
		return dem.Aes256GCMDecrypt(obj.Ciphertext.Blob, obj.Ciphertext.AAD, demKey[:])
	case CiphertextHmac256CTR:
		return dem.Hmac256CTRDecrypt(obj.Ciphertext.Blob, obj.Ciphertext.Mac, obj.Ciphertext.AAD, demKey[:])
	case CiphertextPlain:
		return demKey[:], nil
	default:
		return nil, ErrInvalidInput
	}
}

// checkShareConsistency decrypts every share deterministically from
// the recovered randomness and confirms each lies on the polynomial
// interpolated from the shares actually used to recover the base key.
func checkShareConsistency(obj EncryptedObject, usedShares []tss.Share, fullID []byte, baseKey [KeySize]byte, publicKeys IBEPublicKeys) error {
	polynomial, err := tss.Interpolate(usedShares)
	if err != nil {
		return err
	}

	derivedRandomnessKey := DeriveKey(KeyPurposeEncryptedRandomness, baseKey)
	r, err := ibe.DecryptAndVerifyNonce(obj.EncryptedShares.EncryptedRandomness, derivedRandomnessKey, obj.EncryptedShares.Nonce)
	if err != nil {
		return err
	}

	if len(publicKeys.BonehFranklinBLS12381) != len(obj.EncryptedShares.EncryptedShares) {
		return ErrInvalidInput
	}

	for i, svc := range obj.Services {
		info := ibe.Info{ObjectID: svc.Service, Index: svc.Index}
		pt, err := ibe.DecryptDeterministic(r, obj.EncryptedShares.EncryptedShares[i], publicKeys.BonehFranklinBLS12381[i], fullID, info)
		if err != nil {
			return err
		}
		expected := polynomial(svc.Index)
		if !bytesEqual(expected, pt[:]) {
			return ErrInconsistentShares
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func randomBytes(dst []byte) error {
	_, err := rand.Read(dst)
	return err
}
