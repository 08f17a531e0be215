package gf256_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sealhq/core/pkg/gf256"
)

func TestInverse(t *testing.T) {
	for a := 1; a < 256; a++ {
		inv, err := gf256.Inv(byte(a))
		assert.NoError(t, err)
		assert.Equal(t, byte(1), gf256.Mul(byte(a), inv))
	}
	_, err := gf256.Inv(0)
	assert.ErrorIs(t, err, gf256.ErrZero)
}

func TestAssociativity(t *testing.T) {
	a, b, c := gf256.Elem(0x53), gf256.Elem(0xCA), gf256.Elem(0x17)
	assert.Equal(t, gf256.Add(gf256.Add(a, b), c), gf256.Add(a, gf256.Add(b, c)))
}

func TestDistributivity(t *testing.T) {
	a, b, c := gf256.Elem(0x53), gf256.Elem(0xCA), gf256.Elem(0x17)
	lhs := gf256.Mul(a, gf256.Add(b, c))
	rhs := gf256.Add(gf256.Mul(a, b), gf256.Mul(a, c))
	assert.Equal(t, rhs, lhs)
}

func TestMulByZero(t *testing.T) {
	assert.Equal(t, byte(0), gf256.Mul(0, 0x42))
	assert.Equal(t, byte(0), gf256.Mul(0x42, 0))
}
