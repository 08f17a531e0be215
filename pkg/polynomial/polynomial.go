// Package polynomial implements dense polynomials over GF(2^8), used by
// the threshold secret sharing layer for splitting and interpolation.
package polynomial

import "github.com/sealhq/core/pkg/gf256"

// Polynomial is an ordered list of GF(2^8) coefficients, index 0 being
// the constant term. Canonical form carries no trailing zero
// coefficient; the zero polynomial has an empty coefficient list.
type Polynomial struct {
	coeffs []gf256.Elem
}

// New wraps coeffs into a canonicalized Polynomial. The input slice is
// copied.
func New(coeffs []gf256.Elem) Polynomial {
	cp := make([]gf256.Elem, len(coeffs))
	copy(cp, coeffs)
	return Polynomial{coeffs: cp}.stripTrailingZeros()
}

// Zero returns the zero polynomial.
func Zero() Polynomial {
	return Polynomial{}
}

// MonicLinear returns the polynomial `x - constant`, i.e. coefficients
// [constant, 1].
func MonicLinear(constant gf256.Elem) Polynomial {
	return New([]gf256.Elem{constant, 1})
}

// Degree returns len(coeffs)-1; the zero polynomial has degree -1.
func (p Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// Coeffs returns the canonical coefficient slice; callers must not
// mutate it.
func (p Polynomial) Coeffs() []gf256.Elem {
	return p.coeffs
}

func (p Polynomial) stripTrailingZeros() Polynomial {
	n := len(p.coeffs)
	for n > 0 && p.coeffs[n-1] == 0 {
		n--
	}
	return Polynomial{coeffs: p.coeffs[:n]}
}

// Evaluate computes f(x) using Horner's rule.
func (p Polynomial) Evaluate(x gf256.Elem) gf256.Elem {
	var acc gf256.Elem
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		acc = gf256.Add(gf256.Mul(acc, x), p.coeffs[i])
	}
	return acc
}

// Add returns p+q, padding the shorter operand with zeros.
func Add(p, q Polynomial) Polynomial {
	n := len(p.coeffs)
	if len(q.coeffs) > n {
		n = len(q.coeffs)
	}
	out := make([]gf256.Elem, n)
	for i := 0; i < n; i++ {
		var a, b gf256.Elem
		if i < len(p.coeffs) {
			a = p.coeffs[i]
		}
		if i < len(q.coeffs) {
			b = q.coeffs[i]
		}
		out[i] = gf256.Add(a, b)
	}
	return New(out)
}

// Mul returns the convolution product p*q.
func Mul(p, q Polynomial) Polynomial {
	if len(p.coeffs) == 0 || len(q.coeffs) == 0 {
		return Zero()
	}
	out := make([]gf256.Elem, len(p.coeffs)+len(q.coeffs)-1)
	for i, a := range p.coeffs {
		if a == 0 {
			continue
		}
		for j, b := range q.coeffs {
			out[i+j] = gf256.Add(out[i+j], gf256.Mul(a, b))
		}
	}
	return New(out)
}

// MulScalar returns p scaled by c.
func MulScalar(p Polynomial, c gf256.Elem) Polynomial {
	out := make([]gf256.Elem, len(p.coeffs))
	for i, a := range p.coeffs {
		out[i] = gf256.Mul(a, c)
	}
	return New(out)
}

// DivScalar returns p divided by the nonzero scalar c.
func DivScalar(p Polynomial, c gf256.Elem) (Polynomial, error) {
	inv, err := gf256.Inv(c)
	if err != nil {
		return Polynomial{}, err
	}
	return MulScalar(p, inv), nil
}

// Point is an (x, y) interpolation point.
type Point struct {
	X, Y gf256.Elem
}

// Interpolate returns the unique polynomial of degree < len(points)
// passing through all the given points, via the standard Lagrange
// basis-polynomial sum. The caller must guarantee distinct
// x-coordinates; behavior is undefined otherwise.
func Interpolate(points []Point) (Polynomial, error) {
	result := Zero()
	for j, pj := range points {
		term := New([]gf256.Elem{1})
		denom := gf256.Elem(1)
		for i, pi := range points {
			if i == j {
				continue
			}
			term = Mul(term, MonicLinear(pi.X))
			denom = gf256.Mul(denom, gf256.Sub(pj.X, pi.X))
		}
		term, err := DivScalar(term, denom)
		if err != nil {
			return Polynomial{}, err
		}
		term = MulScalar(term, pj.Y)
		result = Add(result, term)
	}
	return result, nil
}
