package seal

import (
	"fmt"

	"github.com/sealhq/core/internal/bcs"
	"github.com/sealhq/core/pkg/curve"
)

// MarshalBCS encodes an EncryptedObject in Sui's Binary Canonical
// Serialization, field order matching the Rust reference struct:
// version, package_id, id, services, threshold, encrypted_shares,
// ciphertext.
func (o EncryptedObject) MarshalBCS() ([]byte, error) {
	w := bcs.NewWriter()
	w.WriteU8(o.Version)
	w.WriteFixedBytes(o.PackageID[:])
	w.WriteBytes(o.ID)

	w.WriteULEB128(uint64(len(o.Services)))
	for _, svc := range o.Services {
		w.WriteFixedBytes(svc.Service[:])
		w.WriteU8(svc.Index)
	}

	w.WriteU8(o.Threshold)

	if err := o.EncryptedShares.marshalBCS(w); err != nil {
		return nil, err
	}
	o.Ciphertext.marshalBCS(w)

	return w.Bytes(), nil
}

// marshalBCS encodes the sole IBEEncryptions variant: a ULEB128
// variant tag (0 = BonehFranklinBLS12381) followed by nonce,
// encrypted shares, and encrypted randomness.
func (e BonehFranklinEncryption) marshalBCS(w *bcs.Writer) error {
	w.WriteULEB128(0)
	nonceBytes := e.Nonce.Bytes()
	w.WriteFixedBytes(nonceBytes[:])

	w.WriteULEB128(uint64(len(e.EncryptedShares)))
	for _, s := range e.EncryptedShares {
		w.WriteFixedBytes(s[:])
	}
	w.WriteFixedBytes(e.EncryptedRandomness[:])
	return nil
}

func (c Ciphertext) marshalBCS(w *bcs.Writer) {
	w.WriteULEB128(uint64(c.Kind))
	switch c.Kind {
	case CiphertextAes256GCM:
		w.WriteBytes(c.Blob)
		w.WriteOptionBytes(c.AAD, c.HasAAD)
	case CiphertextHmac256CTR:
		w.WriteBytes(c.Blob)
		w.WriteOptionBytes(c.AAD, c.HasAAD)
		w.WriteFixedBytes(c.Mac[:])
	case CiphertextPlain:
		// no fields
	}
}

// UnmarshalEncryptedObject decodes the wire form produced by
// MarshalBCS.
func UnmarshalEncryptedObject(data []byte) (EncryptedObject, error) {
	r := bcs.NewReader(data)
	var o EncryptedObject

	version, err := r.ReadU8()
	if err != nil {
		return o, err
	}
	o.Version = version

	pkg, err := r.ReadFixedBytes(32)
	if err != nil {
		return o, err
	}
	copy(o.PackageID[:], pkg)

	id, err := r.ReadBytes()
	if err != nil {
		return o, err
	}
	o.ID = id

	numServices, err := r.ReadULEB128()
	if err != nil {
		return o, err
	}
	o.Services = make([]ServiceShare, numServices)
	for i := range o.Services {
		svcID, err := r.ReadFixedBytes(32)
		if err != nil {
			return o, err
		}
		idx, err := r.ReadU8()
		if err != nil {
			return o, err
		}
		copy(o.Services[i].Service[:], svcID)
		o.Services[i].Index = idx
	}

	threshold, err := r.ReadU8()
	if err != nil {
		return o, err
	}
	o.Threshold = threshold

	enc, err := unmarshalBonehFranklin(r)
	if err != nil {
		return o, err
	}
	o.EncryptedShares = enc

	ct, err := unmarshalCiphertext(r)
	if err != nil {
		return o, err
	}
	o.Ciphertext = ct

	return o, nil
}

func unmarshalBonehFranklin(r *bcs.Reader) (BonehFranklinEncryption, error) {
	var enc BonehFranklinEncryption
	variant, err := r.ReadULEB128()
	if err != nil {
		return enc, err
	}
	if variant != 0 {
		return enc, fmt.Errorf("%w: unknown IBEEncryptions variant %d", bcs.ErrMalformed, variant)
	}

	nonceBytes, err := r.ReadFixedBytes(curve.G2Size)
	if err != nil {
		return enc, err
	}
	var nonce curve.G2
	if err := nonce.SetBytes(nonceBytes); err != nil {
		return enc, err
	}
	enc.Nonce = nonce

	n, err := r.ReadULEB128()
	if err != nil {
		return enc, err
	}
	enc.EncryptedShares = make([][KeySize]byte, n)
	for i := range enc.EncryptedShares {
		b, err := r.ReadFixedBytes(KeySize)
		if err != nil {
			return enc, err
		}
		copy(enc.EncryptedShares[i][:], b)
	}

	randBytes, err := r.ReadFixedBytes(KeySize)
	if err != nil {
		return enc, err
	}
	copy(enc.EncryptedRandomness[:], randBytes)

	return enc, nil
}

func unmarshalCiphertext(r *bcs.Reader) (Ciphertext, error) {
	var c Ciphertext
	variant, err := r.ReadULEB128()
	if err != nil {
		return c, err
	}
	c.Kind = CiphertextKind(variant)
	switch c.Kind {
	case CiphertextAes256GCM, CiphertextHmac256CTR:
		blob, err := r.ReadBytes()
		if err != nil {
			return c, err
		}
		c.Blob = blob
		aad, present, err := r.ReadOptionBytes()
		if err != nil {
			return c, err
		}
		c.AAD = aad
		c.HasAAD = present
		if c.Kind == CiphertextHmac256CTR {
			mac, err := r.ReadFixedBytes(KeySize)
			if err != nil {
				return c, err
			}
			copy(c.Mac[:], mac)
		}
	case CiphertextPlain:
		// no fields
	default:
		return c, fmt.Errorf("%w: unknown Ciphertext variant %d", bcs.ErrMalformed, variant)
	}
	return c, nil
}
