package elgamal

import "github.com/sealhq/core/pkg/curve"

// Each of these types BCS-encodes as the concatenation of its group
// elements' fixed-width compressed encodings, with no length prefix
// (mirroring how EncryptedObject.package_id encodes its 32 raw bytes
// in pkg/seal/wire.go): a PublicKey[G1] is exactly 48 bytes, an
// Encryption[G1] exactly 96, a VerificationKey[G2] exactly 96.

// MarshalPublicKeyG1 BCS-encodes a G1 ElGamal public key.
func MarshalPublicKeyG1(pk PublicKeyG1) []byte {
	b := pk.P.Bytes()
	return b[:]
}

// UnmarshalPublicKeyG1 decodes the output of MarshalPublicKeyG1.
func UnmarshalPublicKeyG1(data []byte) (PublicKeyG1, error) {
	var p curve.G1
	if err := p.SetBytes(data); err != nil {
		return PublicKeyG1{}, err
	}
	return PublicKeyG1{P: p}, nil
}

// MarshalEncryptionG1 BCS-encodes an ElGamal ciphertext over G1 as
// C1 || C2.
func MarshalEncryptionG1(e EncryptionG1) []byte {
	c1 := e.C1.Bytes()
	c2 := e.C2.Bytes()
	out := make([]byte, 0, len(c1)+len(c2))
	out = append(out, c1[:]...)
	out = append(out, c2[:]...)
	return out
}

// UnmarshalEncryptionG1 decodes the output of MarshalEncryptionG1.
func UnmarshalEncryptionG1(data []byte) (EncryptionG1, error) {
	if len(data) != 2*curve.G1Size {
		return EncryptionG1{}, curve.ErrInvalidEncoding
	}
	var c1, c2 curve.G1
	if err := c1.SetBytes(data[:curve.G1Size]); err != nil {
		return EncryptionG1{}, err
	}
	if err := c2.SetBytes(data[curve.G1Size:]); err != nil {
		return EncryptionG1{}, err
	}
	return EncryptionG1{C1: c1, C2: c2}, nil
}

// MarshalVerificationKeyG2 BCS-encodes a G2 ElGamal verification key.
func MarshalVerificationKeyG2(vk VerificationKeyG2) []byte {
	b := vk.V.Bytes()
	return b[:]
}

// UnmarshalVerificationKeyG2 decodes the output of
// MarshalVerificationKeyG2.
func UnmarshalVerificationKeyG2(data []byte) (VerificationKeyG2, error) {
	var v curve.G2
	if err := v.SetBytes(data); err != nil {
		return VerificationKeyG2{}, err
	}
	return VerificationKeyG2{V: v}, nil
}
