// Package elgamal implements a generic one-time ElGamal encryption
// used to transport IBE-derived user secret keys from a key server to
// a requesting client, without revealing the server's ephemeral
// randomness.
package elgamal

import "github.com/sealhq/core/pkg/curve"

// CarrierGroup is the capability set required of the group carrying
// the encrypted message: scalar multiplication, addition, and
// subtraction (needed to decrypt).
type CarrierGroup[T any] interface {
	ScalarMul(s curve.Scalar) T
	Add(other T) T
	Sub(other T) T
}

// VerificationGroup is the capability set required of the companion
// group used only to publish a verification key; it shares the
// carrier group's scalar field but never needs subtraction.
type VerificationGroup[T any] interface {
	ScalarMul(s curve.Scalar) T
	Add(other T) T
}

// SecretKey is an ElGamal private key: a bare scalar.
type SecretKey struct {
	S curve.Scalar
}

// PublicKey is an ElGamal public key over carrier group G: g_G * sk.
type PublicKey[G any] struct {
	P G
}

// VerificationKey lets a holder prove knowledge of sk over a companion
// group VG without revealing sk.
type VerificationKey[VG any] struct {
	V VG
}

// Encryption is a one-time ElGamal ciphertext (c1, c2) over carrier
// group G.
type Encryption[G any] struct {
	C1, C2 G
}

// GenKey samples a fresh ElGamal key pair: sk = rand Scalar,
// pk = gGen * sk, vk = vgGen * sk.
func GenKey[G CarrierGroup[G], VG VerificationGroup[VG]](gGen G, vgGen VG) (SecretKey, PublicKey[G], VerificationKey[VG], error) {
	s, err := curve.RandomScalar()
	if err != nil {
		return SecretKey{}, PublicKey[G]{}, VerificationKey[VG]{}, err
	}
	return SecretKey{S: s}, PublicKey[G]{P: gGen.ScalarMul(s)}, VerificationKey[VG]{V: vgGen.ScalarMul(s)}, nil
}

// Encrypt encrypts msg ∈ G under pk: r random, c1 = gGen*r, c2 = pk*r + msg.
func Encrypt[G CarrierGroup[G]](gGen G, msg G, pk PublicKey[G]) (Encryption[G], error) {
	r, err := curve.RandomScalar()
	if err != nil {
		return Encryption[G]{}, err
	}
	c1 := gGen.ScalarMul(r)
	c2 := pk.P.ScalarMul(r).Add(msg)
	return Encryption[G]{C1: c1, C2: c2}, nil
}

// Decrypt recovers msg = c2 - c1*sk.
func Decrypt[G CarrierGroup[G]](sk SecretKey, e Encryption[G]) G {
	return e.C2.Sub(e.C1.ScalarMul(sk.S))
}

// The concrete instantiation used by the request flow: G = G1 (carries
// a user secret key), VG = G2.
type (
	SecretKeyG1       = SecretKey
	PublicKeyG1       = PublicKey[curve.G1]
	VerificationKeyG2 = VerificationKey[curve.G2]
	EncryptionG1      = Encryption[curve.G1]
)

// GenKeyG1G2 specializes GenKey to the G1/G2 request-flow instantiation.
func GenKeyG1G2() (SecretKeyG1, PublicKeyG1, VerificationKeyG2, error) {
	return GenKey[curve.G1, curve.G2](curve.G1Generator(), curve.G2Generator())
}

// EncryptG1 specializes Encrypt to G1.
func EncryptG1(msg curve.G1, pk PublicKeyG1) (EncryptionG1, error) {
	return Encrypt[curve.G1](curve.G1Generator(), msg, pk)
}

// DecryptG1 specializes Decrypt to G1.
func DecryptG1(sk SecretKeyG1, e EncryptionG1) curve.G1 {
	return Decrypt[curve.G1](sk, e)
}
