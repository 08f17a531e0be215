package keyserver_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealhq/core/internal/bcs"
	"github.com/sealhq/core/internal/cert"
	"github.com/sealhq/core/internal/keyserver"
	"github.com/sealhq/core/internal/ptb"
	"github.com/sealhq/core/internal/signedmsg"
	"github.com/sealhq/core/pkg/elgamal"
	"github.com/sealhq/core/pkg/ibe"
)

func encodeBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func ed25519GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

func ed25519Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

func pureBytesOf(b []byte) []byte {
	w := bcs.NewWriter()
	w.WriteBytes(b)
	return w.Bytes()
}

// encodePTB BCS-encodes a single-MoveCall, single-input PTB the way
// decodePTB in server.go expects to read it back.
func encodePTB(pkgID ptb.ObjectID, module, function string, innerID []byte) []byte {
	w := bcs.NewWriter()
	w.WriteULEB128(1) // one input
	w.WriteU8(0)       // Pure
	w.WriteBytes(pureBytesOf(innerID))

	w.WriteULEB128(1) // one command
	w.WriteU8(0)       // MoveCall
	w.WriteFixedBytes(pkgID[:])
	w.WriteBytes([]byte(module))
	w.WriteBytes([]byte(function))
	w.WriteULEB128(1) // one argument
	w.WriteU8(0)       // Input
	w.WriteU8(0)       // index 0

	return w.Bytes()
}

func newTestServer(t *testing.T, chain *keyserver.FakeChainClient) (*keyserver.Server, ibe.MasterKey) {
	t.Helper()
	msk, _, err := ibe.GenerateKeyPair()
	require.NoError(t, err)

	var objID ptb.ObjectID
	objID[0] = 7

	chain.CheckpointTimestamp = uint64(time.Now().UnixMilli())
	chain.GasPrice = 1000

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := keyserver.NewServer(ctx, keyserver.Config{
		MasterKey:         msk,
		KeyServerObjectID: objID,
		Network:           keyserver.Devnet,
		Chain:             chain,
	})
	require.NoError(t, err)
	return s, msk
}

func TestFetchKeyEndToEnd(t *testing.T) {
	chain := keyserver.NewFakeChainClient()
	s, msk := newTestServer(t, chain)

	var pkgID ptb.ObjectID
	pkgID[1] = 9
	chain.AddPackage(pkgID)

	innerID := []byte{1, 2, 3, 4}
	ptbBytes := encodePTB(pkgID, "access", "seal_approve_x", innerID)
	ptbB64 := encodeBase64(ptbBytes)

	pub, priv, err := ed25519GenerateKey()
	require.NoError(t, err)

	sessionPub, sessionPriv, err := ed25519GenerateKey()
	require.NoError(t, err)

	now := uint64(time.Now().UnixMilli())
	msg := signedmsg.Message(pkgID, sessionPub, now, 5)
	userSig := ed25519Sign(priv, []byte(msg))

	_, pk, _, err := elgamal.GenKeyG1G2()
	require.NoError(t, err)
	encKey := elgamal.MarshalPublicKeyG1(pk)

	signedReq := signedmsg.Request(ptbBytes, encKey, nil)
	reqSig := ed25519Sign(sessionPriv, signedReq)

	req := keyserver.FetchKeyRequest{
		PTBBase64:        ptbB64,
		EncKey:           encKey,
		RequestSignature: reqSig,
		Certificate: cert.Certificate{
			UserPublicKey:  pub,
			SessionVK:      sessionPub,
			CreationTimeMs: now,
			TTLMin:         5,
			Scheme:         cert.SchemeEd25519,
			Signature:      userSig,
		},
	}

	resp, err := s.FetchKey(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.DecryptionKeys, 1)

	fullID := resp.DecryptionKeys[0].ID
	usk, err := ibe.Extract(msk, fullID)
	require.NoError(t, err)

	ok, err := ibe.VerifyUserSecretKey(usk, fullID, ibe.PublicKeyFromMasterKey(msk))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFetchKeyRejectsExpiredCertificate(t *testing.T) {
	chain := keyserver.NewFakeChainClient()
	s, _ := newTestServer(t, chain)

	var pkgID ptb.ObjectID
	chain.AddPackage(pkgID)
	ptbBytes := encodePTB(pkgID, "access", "seal_approve_x", []byte{1})

	req := keyserver.FetchKeyRequest{
		PTBBase64: encodeBase64(ptbBytes),
		Certificate: cert.Certificate{
			TTLMin:         5,
			CreationTimeMs: 1,
		},
	}
	_, err := s.FetchKey(context.Background(), req)
	require.Error(t, err)
}

func TestFetchKeyRejectsPolicyDenial(t *testing.T) {
	chain := keyserver.NewFakeChainClient()
	chain.Policy = func([]byte, cert.Address) bool { return false }
	s, _ := newTestServer(t, chain)

	var pkgID ptb.ObjectID
	chain.AddPackage(pkgID)
	ptbBytes := encodePTB(pkgID, "access", "seal_approve_x", []byte{1})
	ptbB64 := encodeBase64(ptbBytes)

	pub, priv, err := ed25519GenerateKey()
	require.NoError(t, err)
	sessionPub, sessionPriv, err := ed25519GenerateKey()
	require.NoError(t, err)

	now := uint64(time.Now().UnixMilli())
	msg := signedmsg.Message(pkgID, sessionPub, now, 5)
	userSig := ed25519Sign(priv, []byte(msg))

	_, pk, _, err := elgamal.GenKeyG1G2()
	require.NoError(t, err)
	encKey := elgamal.MarshalPublicKeyG1(pk)
	signedReq := signedmsg.Request(ptbBytes, encKey, nil)
	reqSig := ed25519Sign(sessionPriv, signedReq)

	req := keyserver.FetchKeyRequest{
		PTBBase64:        ptbB64,
		EncKey:           encKey,
		RequestSignature: reqSig,
		Certificate: cert.Certificate{
			UserPublicKey:  pub,
			SessionVK:      sessionPub,
			CreationTimeMs: now,
			TTLMin:         5,
			Scheme:         cert.SchemeEd25519,
			Signature:      userSig,
		},
	}
	_, err = s.FetchKey(context.Background(), req)
	require.Error(t, err)
	kerr, ok := err.(*keyserver.Error)
	require.True(t, ok)
	assert.Equal(t, keyserver.KindNoAccess, kerr.K)
}
