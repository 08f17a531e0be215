// Package curve wraps gnark-crypto's BLS12-381 group and pairing
// operations behind a small capability set (add, scalar multiplication,
// generator, hash-to-curve, pairing, byte (de)serialization), so the
// IBE and ElGamal layers above never touch gnark-crypto types directly.
package curve

import (
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// ErrInvalidEncoding is returned when a byte string does not decode to
// a valid group element.
var ErrInvalidEncoding = errors.New("curve: invalid encoding")

// Sizes of the compressed wire encodings, per spec §3.
const (
	ScalarSize = 32
	G1Size     = 48
	G2Size     = 96
	GTSize     = 576
)

// Scalar is an element of the BLS12-381 scalar field.
type Scalar struct{ v fr.Element }

// RandomScalar samples a uniformly random scalar.
func RandomScalar() (Scalar, error) {
	var s Scalar
	if _, err := s.v.SetRandom(); err != nil {
		return Scalar{}, err
	}
	return s, nil
}

// ScalarFromUint64 builds a scalar from a small integer, used by test
// vectors (e.g. r = 12345).
func ScalarFromUint64(x uint64) Scalar {
	var s Scalar
	s.v.SetUint64(x)
	return s
}

// Bytes returns the canonical 32-byte big-endian encoding.
func (s Scalar) Bytes() [ScalarSize]byte {
	return s.v.Bytes()
}

// SetBytes decodes a 32-byte scalar.
func (s *Scalar) SetBytes(b []byte) error {
	if len(b) != ScalarSize {
		return ErrInvalidEncoding
	}
	s.v.SetBytes(b)
	return nil
}

// Xor returns a XOR b, treating both as 32-byte strings; used by
// the IBE randomness one-time pad.
func Xor(a, b [ScalarSize]byte) [ScalarSize]byte {
	var out [ScalarSize]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// G1 is a point in the first pairing group, encoded/decoded in
// compressed form.
type G1 struct{ p bls12381.G1Affine }

// G2 is a point in the second pairing group.
type G2 struct{ p bls12381.G2Affine }

// GT is the target group of the pairing.
type GT struct{ v bls12381.GT }

var g1Gen, g2Gen = initGenerators()

func initGenerators() (bls12381.G1Affine, bls12381.G2Affine) {
	_, _, g1Aff, g2Aff := bls12381.Generators()
	return g1Aff, g2Aff
}

// G1Generator returns the canonical generator of G1.
func G1Generator() G1 { return G1{p: g1Gen} }

// G2Generator returns the canonical generator of G2.
func G2Generator() G2 { return G2{p: g2Gen} }

// ScalarMul returns g * s.
func (g G1) ScalarMul(s Scalar) G1 {
	var bi big.Int
	s.v.BigInt(&bi)
	var out bls12381.G1Affine
	out.ScalarMultiplication(&g.p, &bi)
	return G1{p: out}
}

// Add returns g + h.
func (g G1) Add(h G1) G1 {
	var jg, jh bls12381.G1Jac
	jg.FromAffine(&g.p)
	jh.FromAffine(&h.p)
	jg.AddAssign(&jh)
	var out bls12381.G1Affine
	out.FromJacobian(&jg)
	return G1{p: out}
}

// Sub returns g - h.
func (g G1) Sub(h G1) G1 {
	var neg bls12381.G1Affine
	neg.Neg(&h.p)
	return g.Add(G1{p: neg})
}

// Bytes returns the compressed 48-byte encoding.
func (g G1) Bytes() [G1Size]byte {
	return g.p.Bytes()
}

// SetBytes decodes a compressed G1 point.
func (g *G1) SetBytes(b []byte) error {
	if len(b) != G1Size {
		return ErrInvalidEncoding
	}
	var arr [G1Size]byte
	copy(arr[:], b)
	_, err := g.p.SetBytes(arr[:])
	return err
}

// Equal reports whether g and h encode the same point.
func (g G1) Equal(h G1) bool {
	return g.p.Equal(&h.p)
}

// HashToG1 hashes msg to a G1 point under the given domain separation
// tag, using the standard hash-to-curve suite.
func HashToG1(msg, dst []byte) (G1, error) {
	p, err := bls12381.HashToG1(msg, dst)
	if err != nil {
		return G1{}, err
	}
	return G1{p: p}, nil
}

// ScalarMul returns g * s.
func (g G2) ScalarMul(s Scalar) G2 {
	var bi big.Int
	s.v.BigInt(&bi)
	var out bls12381.G2Affine
	out.ScalarMultiplication(&g.p, &bi)
	return G2{p: out}
}

// Add returns g + h.
func (g G2) Add(h G2) G2 {
	var jg, jh bls12381.G2Jac
	jg.FromAffine(&g.p)
	jh.FromAffine(&h.p)
	jg.AddAssign(&jh)
	var out bls12381.G2Affine
	out.FromJacobian(&jg)
	return G2{p: out}
}

// Bytes returns the compressed 96-byte encoding.
func (g G2) Bytes() [G2Size]byte {
	return g.p.Bytes()
}

// SetBytes decodes a compressed G2 point.
func (g *G2) SetBytes(b []byte) error {
	if len(b) != G2Size {
		return ErrInvalidEncoding
	}
	var arr [G2Size]byte
	copy(arr[:], b)
	_, err := g.p.SetBytes(arr[:])
	return err
}

// Equal reports whether g and h encode the same point.
func (g G2) Equal(h G2) bool {
	return g.p.Equal(&h.p)
}

// Pairing computes e(a, b) ∈ GT.
func Pairing(a G1, b G2) (GT, error) {
	v, err := bls12381.Pair([]bls12381.G1Affine{a.p}, []bls12381.G2Affine{b.p})
	if err != nil {
		return GT{}, err
	}
	return GT{v: v}, nil
}

// Exp raises t to the power s.
func (t GT) Exp(s Scalar) GT {
	var bi big.Int
	s.v.BigInt(&bi)
	var out bls12381.GT
	out.Exp(t.v, &bi)
	return GT{v: out}
}

// Bytes returns the 576-byte encoding.
func (t GT) Bytes() [GTSize]byte {
	return t.v.Bytes()
}
