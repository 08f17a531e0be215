package cert_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealhq/core/internal/cert"
)

func TestValidateAcceptsFreshCertificate(t *testing.T) {
	now := uint64(10_000_000)
	c := cert.Certificate{TTLMin: 5, CreationTimeMs: now - 60_000}
	assert.NoError(t, cert.Validate(c, now))
}

func TestValidateRejectsOverlongTTL(t *testing.T) {
	now := uint64(10_000_000)
	c := cert.Certificate{TTLMin: cert.SessionKeyTTLMaxMinutes + 1, CreationTimeMs: now}
	assert.ErrorIs(t, cert.Validate(c, now), cert.ErrInvalidCertificate)
}

func TestValidateRejectsFutureCreation(t *testing.T) {
	now := uint64(10_000_000)
	c := cert.Certificate{TTLMin: 5, CreationTimeMs: now + 1}
	assert.ErrorIs(t, cert.Validate(c, now), cert.ErrInvalidCertificate)
}

func TestValidateRejectsExpiredCertificate(t *testing.T) {
	now := uint64(10_000_000)
	c := cert.Certificate{TTLMin: 5, CreationTimeMs: now - 6*60_000}
	assert.ErrorIs(t, cert.Validate(c, now), cert.ErrInvalidCertificate)
}

func TestVerifyUserSignatureEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	msg := []byte("hello")
	sig := ed25519.Sign(priv, msg)

	assert.NoError(t, cert.VerifyUserSignature(cert.SchemeEd25519, pub, msg, sig))
	assert.Error(t, cert.VerifyUserSignature(cert.SchemeEd25519, pub, msg, append([]byte(nil), sig...)[:10]))
}

func TestVerifySessionSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	msg := []byte("session request")
	sig := ed25519.Sign(priv, msg)

	assert.NoError(t, cert.VerifySessionSignature(pub, msg, sig))
	assert.Error(t, cert.VerifySessionSignature(pub, []byte("tampered"), sig))
}
