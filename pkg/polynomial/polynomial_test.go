package polynomial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sealhq/core/pkg/gf256"
	"github.com/sealhq/core/pkg/polynomial"
)

func TestEvaluateConstant(t *testing.T) {
	p := polynomial.New([]gf256.Elem{7})
	assert.Equal(t, gf256.Elem(7), p.Evaluate(0))
	assert.Equal(t, gf256.Elem(7), p.Evaluate(55))
}

func TestCanonicalization(t *testing.T) {
	p := polynomial.New([]gf256.Elem{1, 2, 0, 0})
	assert.Equal(t, 1, p.Degree())
	assert.Equal(t, []gf256.Elem{1, 2}, p.Coeffs())

	z := polynomial.New([]gf256.Elem{0, 0, 0})
	assert.Equal(t, -1, z.Degree())
}

func TestArithmetic(t *testing.T) {
	p := polynomial.New([]gf256.Elem{1, 2, 3})
	q := polynomial.New([]gf256.Elem{4, 5})

	sum := polynomial.Add(p, q)
	for _, x := range []gf256.Elem{0, 1, 17, 200} {
		assert.Equal(t, gf256.Add(p.Evaluate(x), q.Evaluate(x)), sum.Evaluate(x))
	}

	prod := polynomial.Mul(p, q)
	for _, x := range []gf256.Elem{0, 1, 17, 200} {
		assert.Equal(t, gf256.Mul(p.Evaluate(x), q.Evaluate(x)), prod.Evaluate(x))
	}
}

func TestInterpolation(t *testing.T) {
	pts := []polynomial.Point{
		{X: 1, Y: 5}, {X: 2, Y: 9}, {X: 3, Y: 17}, {X: 4, Y: 33},
	}
	p, err := polynomial.Interpolate(pts)
	require.NoError(t, err)
	for _, pt := range pts {
		assert.Equal(t, pt.Y, p.Evaluate(pt.X))
	}
}
