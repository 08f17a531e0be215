// Package tss implements Shamir threshold secret sharing of fixed-size
// byte secrets over GF(2^8), one independent polynomial per secret byte.
package tss

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/sealhq/core/pkg/gf256"
	"github.com/sealhq/core/pkg/polynomial"
)

// ErrInvalidInput is returned for malformed threshold/share parameters.
var ErrInvalidInput = errors.New("tss: invalid input")

// Share is a single party's contribution: a nonzero index paired with
// its N-byte share value.
type Share struct {
	Index gf256.Elem
	Value []byte
}

// SecretSharing holds the outcome of Split: the original secret, the
// distinct nonzero indices assigned to each share, and the shares
// themselves.
type SecretSharing struct {
	Secret  []byte
	Indices []gf256.Elem
	Shares  [][]byte
}

// Split creates an n-share, t-threshold sharing of secret. Fails with
// ErrInvalidInput if t == 0, t > n, or n == 0.
func Split(secret []byte, threshold, n int) (*SecretSharing, error) {
	if threshold == 0 || threshold > n || n == 0 {
		return nil, fmt.Errorf("%w: threshold=%d n=%d", ErrInvalidInput, threshold, n)
	}
	if n > 255 {
		return nil, fmt.Errorf("%w: n=%d exceeds 255", ErrInvalidInput, n)
	}

	indices := make([]gf256.Elem, n)
	for i := 0; i < n; i++ {
		indices[i] = gf256.Elem(i + 1)
	}

	shares := make([][]byte, n)
	for i := range shares {
		shares[i] = make([]byte, len(secret))
	}

	for k, secretByte := range secret {
		column, err := splitByte(secretByte, threshold, indices)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			shares[i][k] = column[i]
		}
	}

	return &SecretSharing{Secret: append([]byte(nil), secret...), Indices: indices, Shares: shares}, nil
}

// splitByte samples a degree-(threshold-1) polynomial with constant
// term secretByte and evaluates it at each index.
func splitByte(secretByte gf256.Elem, threshold int, indices []gf256.Elem) ([]gf256.Elem, error) {
	coeffs := make([]gf256.Elem, threshold)
	coeffs[0] = secretByte
	randBytes := make([]byte, threshold-1)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, err
	}
	copy(coeffs[1:], randBytes)
	poly := polynomial.New(coeffs)

	out := make([]gf256.Elem, len(indices))
	for i, idx := range indices {
		out[i] = poly.Evaluate(idx)
	}
	return out, nil
}

func validateShares(shares []Share) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: no shares given", ErrInvalidInput)
	}
	seen := make(map[gf256.Elem]bool, len(shares))
	for _, s := range shares {
		if s.Index == 0 {
			return fmt.Errorf("%w: share index 0 is forbidden", ErrInvalidInput)
		}
		if seen[s.Index] {
			return fmt.Errorf("%w: duplicate share index %d", ErrInvalidInput, s.Index)
		}
		seen[s.Index] = true
	}
	n := len(shares[0].Value)
	for _, s := range shares {
		if len(s.Value) != n {
			return fmt.Errorf("%w: inconsistent share lengths", ErrInvalidInput)
		}
	}
	return nil
}

// Combine reconstructs the N-byte secret from shares via the
// Lagrange-at-zero formula, applied independently per byte. Behavior
// is undefined (returns a well-typed but wrong value) if fewer than t
// shares are supplied.
func Combine(shares []Share) ([]byte, error) {
	if err := validateShares(shares); err != nil {
		return nil, err
	}
	n := len(shares[0].Value)
	out := make([]byte, n)
	for k := 0; k < n; k++ {
		b, err := combineByte(shares, k)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}

// combineByte reconstructs byte k of the secret:
// s = (Π_j x_j) · Σ_i share_i(k) / (x_i · Π_{j≠i}(x_j - x_i))
func combineByte(shares []Share, k int) (gf256.Elem, error) {
	product := gf256.Elem(1)
	for _, s := range shares {
		product = gf256.Mul(product, s.Index)
	}
	var sum gf256.Elem
	for i, si := range shares {
		denom := si.Index
		for j, sj := range shares {
			if i == j {
				continue
			}
			denom = gf256.Mul(denom, gf256.Sub(sj.Index, si.Index))
		}
		quotient, err := gf256.Div(si.Value[k], denom)
		if err != nil {
			return 0, fmt.Errorf("%w: zero denominator reconstructing share", ErrInvalidInput)
		}
		sum = gf256.Add(sum, quotient)
	}
	return gf256.Mul(product, sum), nil
}

// Interpolate returns a closure evaluating each of the N interpolated
// per-byte polynomials at an arbitrary index; used for
// share-consistency checks.
func Interpolate(shares []Share) (func(x gf256.Elem) []byte, error) {
	if err := validateShares(shares); err != nil {
		return nil, err
	}
	n := len(shares[0].Value)
	polys := make([]polynomial.Polynomial, n)
	for k := 0; k < n; k++ {
		pts := make([]polynomial.Point, len(shares))
		for i, s := range shares {
			pts[i] = polynomial.Point{X: s.Index, Y: s.Value[k]}
		}
		p, err := polynomial.Interpolate(pts)
		if err != nil {
			return nil, err
		}
		polys[k] = p
	}
	return func(x gf256.Elem) []byte {
		out := make([]byte, n)
		for k, p := range polys {
			out[k] = p.Evaluate(x)
		}
		return out
	}, nil
}

// SplitWithGivenShares builds a sharing whose first len(given) shares
// are exactly the given values, deriving the secret deterministically
// from the interpolant's constant term, with t = len(given)+1. The
// remaining n-len(given) shares are computed by evaluating the
// interpolated polynomial at the unused indices 1..=n.
func SplitWithGivenShares(given []Share, n int) (*SecretSharing, error) {
	if len(given) == 0 {
		return nil, fmt.Errorf("%w: no given shares", ErrInvalidInput)
	}
	if len(given) >= n {
		return nil, fmt.Errorf("%w: given shares must be fewer than n", ErrInvalidInput)
	}
	byteLen := len(given[0].Value)

	usedIdx := make(map[gf256.Elem]bool, len(given))
	for _, s := range given {
		usedIdx[s.Index] = true
	}

	secret := make([]byte, byteLen)
	allShares := make(map[gf256.Elem][]byte, n)
	for _, s := range given {
		allShares[s.Index] = append([]byte(nil), s.Value...)
	}

	for k := 0; k < byteLen; k++ {
		pts := make([]polynomial.Point, len(given))
		for i, s := range given {
			pts[i] = polynomial.Point{X: s.Index, Y: s.Value[k]}
		}
		p, err := polynomial.Interpolate(pts)
		if err != nil {
			return nil, err
		}
		secret[k] = p.Evaluate(0)
		for i := 1; i <= n; i++ {
			idx := gf256.Elem(i)
			if usedIdx[idx] {
				continue
			}
			if allShares[idx] == nil {
				allShares[idx] = make([]byte, byteLen)
			}
			allShares[idx][k] = p.Evaluate(idx)
		}
	}

	indices := make([]gf256.Elem, n)
	shares := make([][]byte, n)
	for i := 1; i <= n; i++ {
		idx := gf256.Elem(i)
		indices[i-1] = idx
		shares[i-1] = allShares[idx]
	}

	return &SecretSharing{Secret: secret, Indices: indices, Shares: shares}, nil
}
