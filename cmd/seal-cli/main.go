// Command seal-cli is a scriptable front end to the seal cryptographic
// core: key generation, extraction, verification, encryption, and
// decryption, all hex-encoded for terminal use.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sealhq/core/pkg/curve"
	"github.com/sealhq/core/pkg/ibe"
	"github.com/sealhq/core/pkg/seal"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seal-cli",
		Short: "Command-line front end to the seal cryptographic core",
	}
	root.AddCommand(genkeyCmd(), extractCmd(), verifyCmd(), plainCmd(), encryptCmd(), decryptCmd(), parseCmd())
	return root
}

func genkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Generate a new IBE master key and public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			msk, mpk, err := ibe.GenerateKeyPair()
			if err != nil {
				return err
			}
			mskBytes := msk.Bytes()
			mpkBytes := mpk.Bytes()
			fmt.Printf("Master key: %s\n", hex.EncodeToString(mskBytes[:]))
			fmt.Printf("Public key: %s\n", hex.EncodeToString(mpkBytes[:]))
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var packageIDHex, idHex, masterKeyHex string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Derive a user secret key from an id and master key",
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgID, err := hex.DecodeString(packageIDHex)
			if err != nil {
				return fmt.Errorf("package-id: %w", err)
			}
			id, err := hex.DecodeString(idHex)
			if err != nil {
				return fmt.Errorf("id: %w", err)
			}
			mskBytes, err := hex.DecodeString(masterKeyHex)
			if err != nil {
				return fmt.Errorf("master-key: %w", err)
			}
			var msk curve.Scalar
			if err := msk.SetBytes(mskBytes); err != nil {
				return err
			}

			var objID seal.ObjectID
			copy(objID[:], pkgID)
			fullID := seal.CreateFullID(objID, id)
			usk, err := ibe.Extract(msk, fullID)
			if err != nil {
				return err
			}
			uskBytes := usk.Bytes()
			fmt.Printf("User secret key: %s\n", hex.EncodeToString(uskBytes[:]))
			return nil
		},
	}
	cmd.Flags().StringVar(&packageIDHex, "package-id", "", "hex-encoded package id")
	cmd.Flags().StringVar(&idHex, "id", "", "hex-encoded identity")
	cmd.Flags().StringVar(&masterKeyHex, "master-key", "", "hex-encoded master key scalar")
	_ = cmd.MarkFlagRequired("package-id")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("master-key")
	return cmd
}

func verifyCmd() *cobra.Command {
	var packageIDHex, idHex, uskHex, pkHex string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a user secret key matches a public key and id",
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgID, err := hex.DecodeString(packageIDHex)
			if err != nil {
				return err
			}
			id, err := hex.DecodeString(idHex)
			if err != nil {
				return err
			}
			uskBytes, err := hex.DecodeString(uskHex)
			if err != nil {
				return err
			}
			pkBytes, err := hex.DecodeString(pkHex)
			if err != nil {
				return err
			}
			var usk curve.G1
			if err := usk.SetBytes(uskBytes); err != nil {
				return err
			}
			var pk curve.G2
			if err := pk.SetBytes(pkBytes); err != nil {
				return err
			}

			var objID seal.ObjectID
			copy(objID[:], pkgID)
			fullID := seal.CreateFullID(objID, id)
			ok, err := ibe.VerifyUserSecretKey(usk, fullID, pk)
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		},
	}
	cmd.Flags().StringVar(&packageIDHex, "package-id", "", "hex-encoded package id")
	cmd.Flags().StringVar(&idHex, "id", "", "hex-encoded identity")
	cmd.Flags().StringVar(&uskHex, "user-secret-key", "", "hex-encoded user secret key (G1)")
	cmd.Flags().StringVar(&pkHex, "public-key", "", "hex-encoded public key (G2)")
	return cmd
}

func sealEncryptionArgs(cmd *cobra.Command) (thresholdFlag *uint8, publicKeysFlag, objectIDsFlag *[]string) {
	var threshold uint8
	var publicKeys, objectIDs []string
	cmd.Flags().Uint8Var(&threshold, "threshold", 0, "minimum number of key servers required")
	cmd.Flags().StringSliceVar(&publicKeys, "public-keys", nil, "hex-encoded G2 public keys, one per key server")
	cmd.Flags().StringSliceVar(&objectIDs, "object-ids", nil, "hex-encoded key server object ids")
	return &threshold, &publicKeys, &objectIDs
}

func resolveEncryptionInputs(packageIDHex, idHex string, threshold uint8, publicKeysHex, objectIDsHex []string) (seal.ObjectID, []byte, []seal.ObjectID, seal.IBEPublicKeys, error) {
	pkgIDBytes, err := hex.DecodeString(packageIDHex)
	if err != nil {
		return seal.ObjectID{}, nil, nil, seal.IBEPublicKeys{}, err
	}
	id, err := hex.DecodeString(idHex)
	if err != nil {
		return seal.ObjectID{}, nil, nil, seal.IBEPublicKeys{}, err
	}
	if len(publicKeysHex) != len(objectIDsHex) {
		return seal.ObjectID{}, nil, nil, seal.IBEPublicKeys{}, fmt.Errorf("public-keys and object-ids must have the same length")
	}

	var pkgID seal.ObjectID
	copy(pkgID[:], pkgIDBytes)

	servers := make([]seal.ObjectID, len(objectIDsHex))
	pks := make([]ibe.PublicKey, len(publicKeysHex))
	for i, oidHex := range objectIDsHex {
		b, err := hex.DecodeString(oidHex)
		if err != nil {
			return seal.ObjectID{}, nil, nil, seal.IBEPublicKeys{}, err
		}
		copy(servers[i][:], b)

		pkBytes, err := hex.DecodeString(publicKeysHex[i])
		if err != nil {
			return seal.ObjectID{}, nil, nil, seal.IBEPublicKeys{}, err
		}
		if err := pks[i].SetBytes(pkBytes); err != nil {
			return seal.ObjectID{}, nil, nil, seal.IBEPublicKeys{}, err
		}
	}
	return pkgID, id, servers, seal.IBEPublicKeys{BonehFranklinBLS12381: pks}, nil
}

func plainCmd() *cobra.Command {
	var packageIDHex, idHex string
	cmd := &cobra.Command{
		Use:   "plain",
		Short: "Derive a key via Seal without encrypting a payload (plain mode)",
	}
	threshold, publicKeys, objectIDs := sealEncryptionArgs(cmd)
	cmd.Flags().StringVar(&packageIDHex, "package-id", "", "hex-encoded package id")
	cmd.Flags().StringVar(&idHex, "id", "", "hex-encoded identity")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		pkgID, id, servers, pks, err := resolveEncryptionInputs(packageIDHex, idHex, *threshold, *publicKeys, *objectIDs)
		if err != nil {
			return err
		}
		obj, key, err := seal.Encrypt(pkgID, id, servers, pks, *threshold, seal.EncryptionInput{Kind: seal.CiphertextPlain})
		if err != nil {
			return err
		}
		wire, err := obj.MarshalBCS()
		if err != nil {
			return err
		}
		fmt.Printf("Encrypted object: %s\n", hex.EncodeToString(wire))
		fmt.Printf("Symmetric key: %s\n", hex.EncodeToString(key[:]))
		return nil
	}
	return cmd
}

func encryptCmd() *cobra.Command {
	var packageIDHex, idHex, messageHex, aadHex string
	var hmac bool
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a message under Seal using AES-256-GCM (default) or HMAC-256-CTR (--hmac)",
	}
	threshold, publicKeys, objectIDs := sealEncryptionArgs(cmd)
	cmd.Flags().StringVar(&packageIDHex, "package-id", "", "hex-encoded package id")
	cmd.Flags().StringVar(&idHex, "id", "", "hex-encoded identity")
	cmd.Flags().StringVar(&messageHex, "message", "", "hex-encoded plaintext")
	cmd.Flags().StringVar(&aadHex, "aad", "", "optional hex-encoded additional authenticated data")
	cmd.Flags().BoolVar(&hmac, "hmac", false, "use HMAC-256-CTR instead of AES-256-GCM")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		pkgID, id, servers, pks, err := resolveEncryptionInputs(packageIDHex, idHex, *threshold, *publicKeys, *objectIDs)
		if err != nil {
			return err
		}
		message, err := hex.DecodeString(messageHex)
		if err != nil {
			return err
		}
		var aad []byte
		hasAAD := aadHex != ""
		if hasAAD {
			aad, err = hex.DecodeString(aadHex)
			if err != nil {
				return err
			}
		}
		kind := seal.CiphertextAes256GCM
		if hmac {
			kind = seal.CiphertextHmac256CTR
		}
		obj, _, err := seal.Encrypt(pkgID, id, servers, pks, *threshold, seal.EncryptionInput{
			Kind: kind, Data: message, AAD: aad, HasAAD: hasAAD,
		})
		if err != nil {
			return err
		}
		wire, err := obj.MarshalBCS()
		if err != nil {
			return err
		}
		fmt.Printf("Encrypted object: %s\n", hex.EncodeToString(wire))
		return nil
	}
	return cmd
}

func decryptCmd() *cobra.Command {
	var objectHex, masterKeyHex string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a Seal-encrypted object given a single server's master key",
		RunE: func(cmd *cobra.Command, args []string) error {
			wire, err := hex.DecodeString(objectHex)
			if err != nil {
				return err
			}
			obj, err := seal.UnmarshalEncryptedObject(wire)
			if err != nil {
				return err
			}
			mskBytes, err := hex.DecodeString(masterKeyHex)
			if err != nil {
				return err
			}
			var msk curve.Scalar
			if err := msk.SetBytes(mskBytes); err != nil {
				return err
			}

			usks := make(map[seal.ObjectID]ibe.UserSecretKey, len(obj.Services))
			fullID := seal.CreateFullID(obj.PackageID, obj.ID)
			for _, svc := range obj.Services {
				usk, err := ibe.Extract(msk, fullID)
				if err != nil {
					return err
				}
				usks[svc.Service] = usk
			}

			plaintext, err := seal.Decrypt(obj, seal.IBEUserSecretKeys{BonehFranklinBLS12381: usks}, nil)
			if err != nil {
				return err
			}
			fmt.Printf("Plaintext: %s\n", hex.EncodeToString(plaintext))
			return nil
		},
	}
	cmd.Flags().StringVar(&objectHex, "object", "", "hex-encoded BCS-serialized encrypted object")
	cmd.Flags().StringVar(&masterKeyHex, "master-key", "", "hex-encoded master key scalar (same key used by every server, for local testing)")
	return cmd
}

func parseCmd() *cobra.Command {
	var objectHex string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse and print the structure of an encrypted object",
		RunE: func(cmd *cobra.Command, args []string) error {
			wire, err := hex.DecodeString(objectHex)
			if err != nil {
				return err
			}
			obj, err := seal.UnmarshalEncryptedObject(wire)
			if err != nil {
				return err
			}
			fmt.Printf("version: %d\n", obj.Version)
			fmt.Printf("package_id: %s\n", hex.EncodeToString(obj.PackageID[:]))
			fmt.Printf("id: %s\n", hex.EncodeToString(obj.ID))
			fmt.Printf("threshold: %d\n", obj.Threshold)
			fmt.Printf("services: %d\n", len(obj.Services))
			for i, svc := range obj.Services {
				fmt.Printf("  [%d] %s index=%d\n", i, hex.EncodeToString(svc.Service[:]), svc.Index)
			}
			fmt.Printf("ciphertext kind: %s\n", ciphertextKindName(obj.Ciphertext.Kind))
			return nil
		},
	}
	cmd.Flags().StringVar(&objectHex, "object", "", "hex-encoded BCS-serialized encrypted object")
	return cmd
}

func ciphertextKindName(k seal.CiphertextKind) string {
	switch k {
	case seal.CiphertextAes256GCM:
		return "aes-256-gcm"
	case seal.CiphertextHmac256CTR:
		return "hmac-256-ctr"
	default:
		return "plain"
	}
}
