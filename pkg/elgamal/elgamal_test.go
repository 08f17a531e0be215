package elgamal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealhq/core/pkg/curve"
	"github.com/sealhq/core/pkg/elgamal"
)

func TestGenEncryptDecryptRoundTrip(t *testing.T) {
	sk, pk, vk, err := elgamal.GenKeyG1G2()
	require.NoError(t, err)

	// vk must be consistent with sk: vk = g2 * sk.
	assert.True(t, curve.G2Generator().ScalarMul(sk.S).Equal(vk.V))

	r, err := curve.RandomScalar()
	require.NoError(t, err)
	msg := curve.G1Generator().ScalarMul(r)

	enc, err := elgamal.EncryptG1(msg, pk)
	require.NoError(t, err)

	got := elgamal.DecryptG1(sk, enc)
	assert.True(t, msg.Equal(got))
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	_, pk, _, err := elgamal.GenKeyG1G2()
	require.NoError(t, err)
	otherSk, _, _, err := elgamal.GenKeyG1G2()
	require.NoError(t, err)

	r, err := curve.RandomScalar()
	require.NoError(t, err)
	msg := curve.G1Generator().ScalarMul(r)

	enc, err := elgamal.EncryptG1(msg, pk)
	require.NoError(t, err)

	got := elgamal.DecryptG1(otherSk, enc)
	assert.False(t, msg.Equal(got))
}
