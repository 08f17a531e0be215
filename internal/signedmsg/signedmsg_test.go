package signedmsg_test

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealhq/core/internal/signedmsg"
)

// TestMessageRegression reproduces spec §8 item 7.
func TestMessageRegression(t *testing.T) {
	pkgHex := "0000c457b42d48924087ea3f22d35fd2fe9afdf5bdfe38cc51c0f14f3282f6d5"
	pkgBytes, err := hex.DecodeString(pkgHex)
	require.NoError(t, err)
	require.Len(t, pkgBytes, 32)
	var pkgID [32]byte
	copy(pkgID[:], pkgBytes)

	sessionVK, err := base64.StdEncoding.DecodeString("DX2rNYyNrapO+gBJp1sHQ2VVsQo2ghm7aA9wVxNJ13U=")
	require.NoError(t, err)

	got := signedmsg.Message(pkgID, sessionVK, 1622548800, 30)
	want := "Accessing keys of package 0x0000c457b42d48924087ea3f22d35fd2fe9afdf5bdfe38cc51c0f14f3282f6d5 for 30 mins from 1970-01-19 18:42:28 UTC, session key DX2rNYyNrapO+gBJp1sHQ2VVsQo2ghm7aA9wVxNJ13U="
	assert.Equal(t, want, got)
}

func TestRequestDeterministic(t *testing.T) {
	a := signedmsg.Request([]byte{1, 2, 3}, []byte{4, 5}, []byte{6})
	b := signedmsg.Request([]byte{1, 2, 3}, []byte{4, 5}, []byte{6})
	assert.Equal(t, a, b)

	c := signedmsg.Request([]byte{1, 2, 3}, []byte{4, 5}, []byte{7})
	assert.NotEqual(t, a, c)
}
