package keyserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sealhq/core/internal/bcs"
	"github.com/sealhq/core/internal/cert"
	"github.com/sealhq/core/internal/ptb"
	"github.com/sealhq/core/internal/signedmsg"
	"github.com/sealhq/core/pkg/elgamal"
	"github.com/sealhq/core/pkg/ibe"
	"github.com/sealhq/core/pkg/seal"
)

// Normative constants from the external interface definition.
const (
	GasBudget                 = 500_000_000
	AllowedStaleness          = 120 * time.Second
	CheckpointUpdateInterval  = 10 * time.Second
	ReferenceGasPriceInterval = 60 * time.Second
)

// Config bundles everything NewServer needs that isn't derived at
// runtime.
type Config struct {
	MasterKey         ibe.MasterKey
	KeyServerObjectID ptb.ObjectID
	Network           Network
	Chain             ChainClient
	Metrics           Recorder
	AllowedStaleness  time.Duration
}

// Server is the key-server control plane: it validates requests,
// checks policy against the chain, and extracts/encrypts decryption
// keys for approved identities.
type Server struct {
	masterKey         ibe.MasterKey
	publicKey         ibe.PublicKey
	pop               ibe.ProofOfPossession
	keyServerObjectID ptb.ObjectID
	network           Network
	chain             ChainClient
	resolver          *PackageResolver
	metrics           Recorder
	allowedStaleness  time.Duration

	checkpointSlot *Broadcaster[uint64]
	gasPriceSlot   *Broadcaster[uint64]
}

// NewServer builds a Server, computes its proof of possession, and
// blocks until both background updaters have populated their slots at
// least once — the control plane must not begin serving before that.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Metrics == nil {
		cfg.Metrics = NoopRecorder{}
	}
	if cfg.AllowedStaleness == 0 {
		cfg.AllowedStaleness = AllowedStaleness
	}

	publicKey := ibe.PublicKeyFromMasterKey(cfg.MasterKey)
	mpkBytes := publicKey.Bytes()
	pop, err := ibe.CreateProofOfPossession(cfg.MasterKey, seal.DSTProofOfPossession, mpkBytes[:], cfg.KeyServerObjectID[:])
	if err != nil {
		return nil, fmt.Errorf("keyserver: computing proof of possession: %w", err)
	}

	s := &Server{
		masterKey:         cfg.MasterKey,
		publicKey:         publicKey,
		pop:               pop,
		keyServerObjectID: cfg.KeyServerObjectID,
		network:           cfg.Network,
		chain:             cfg.Chain,
		resolver:          NewPackageResolver(cfg.Chain),
		metrics:           cfg.Metrics,
		allowedStaleness:  cfg.AllowedStaleness,
		checkpointSlot:    NewBroadcaster[uint64](),
		gasPriceSlot:      NewBroadcaster[uint64](),
	}

	go s.runPeriodicUpdater(CheckpointUpdateInterval, func(ctx context.Context) (uint64, error) {
		start := time.Now()
		ts, err := s.chain.LatestCheckpointTimestampMs(ctx)
		s.metrics.ObserveCheckpointFetchDuration(time.Since(start))
		s.metrics.ObserveCheckpointFetchStatus(err == nil)
		return ts, err
	}, s.checkpointSlot)

	go s.runPeriodicUpdater(ReferenceGasPriceInterval, func(ctx context.Context) (uint64, error) {
		rgp, err := s.chain.ReferenceGasPrice(ctx)
		s.metrics.ObserveGasPriceFetchStatus(err == nil)
		return rgp, err
	}, s.gasPriceSlot)

	if _, err := s.checkpointSlot.Wait(ctx); err != nil {
		return nil, fmt.Errorf("keyserver: waiting for initial checkpoint fetch: %w", err)
	}
	if _, err := s.gasPriceSlot.Wait(ctx); err != nil {
		return nil, fmt.Errorf("keyserver: waiting for initial gas price fetch: %w", err)
	}
	return s, nil
}

// runPeriodicUpdater loops fetch -> broadcast -> wait-for-tick with a
// "delay" missed-tick policy: ticks missed during a slow fetch are
// dropped (time.Ticker buffers at most one) rather than letting
// fetches queue up. Failures log (via the
// metrics status counters pushed by the caller) and retry on the next
// tick; the last good value keeps being served.
func (s *Server) runPeriodicUpdater(period time.Duration, fetch func(context.Context) (uint64, error), slot *Broadcaster[uint64]) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		ctx, cancel := context.WithTimeout(context.Background(), period)
		v, err := fetch(ctx)
		cancel()
		if err == nil {
			slot.Set(v)
		}
		<-ticker.C
	}
}

// ServiceInfo returns this server's object id and its proof of
// possession, for the /v1/service endpoint.
func (s *Server) ServiceInfo() (ptb.ObjectID, ibe.ProofOfPossession) {
	return s.keyServerObjectID, s.pop
}

// PublicKey returns the server's IBE public key.
func (s *Server) PublicKey() ibe.PublicKey {
	return s.publicKey
}

// FetchKeyRequest is the decoded form of the JSON request body posted
// to /v1/fetch_key.
type FetchKeyRequest struct {
	PTBBase64          string
	EncKey             []byte // BCS-encoded ElGamal public key
	EncVerificationKey []byte // BCS-encoded ElGamal verification key
	RequestSignature   []byte
	Certificate        cert.Certificate
}

// DecryptionKey pairs a requested identity with its key, ElGamal
// encrypted under the client's session key.
type DecryptionKey struct {
	ID           []byte
	EncryptedKey elgamal.EncryptionG1
}

// FetchKeyResponse is returned by FetchKey, ready to be rendered to
// JSON by the HTTP layer.
type FetchKeyResponse struct {
	DecryptionKeys []DecryptionKey
}

// FetchKey validates req end to end and, for every identity named by
// the request's PTB, extracts and ElGamal-encrypts the corresponding
// decryption key.
func (s *Server) FetchKey(ctx context.Context, req FetchKeyRequest) (FetchKeyResponse, error) {
	s.metrics.IncRequests()

	nowMs := uint64(time.Now().UnixMilli())
	valid, pkgID, err := s.checkRequest(req.PTBBase64)
	if err != nil {
		return FetchKeyResponse{}, err
	}

	if err := s.checkSignature(req, pkgID, nowMs); err != nil {
		return FetchKeyResponse{}, err
	}

	if err := s.checkFreshness(ctx); err != nil {
		return FetchKeyResponse{}, err
	}

	versions, err := s.checkPackageVersion(ctx, pkgID)
	if err != nil {
		return FetchKeyResponse{}, err
	}

	if err := s.checkPolicy(ctx, req, valid); err != nil {
		return FetchKeyResponse{}, err
	}

	pk, err := elgamal.UnmarshalPublicKeyG1(req.EncKey)
	if err != nil {
		return FetchKeyResponse{}, NewError(KindFailure, "malformed enc_key")
	}

	fullIDs := valid.FullIDs(seal.DST, versions.First)
	s.metrics.ObserveRequestsPerNumberOfIDs(len(fullIDs))

	keys := make([]DecryptionKey, 0, len(fullIDs))
	for _, fullID := range fullIDs {
		usk, err := ibe.Extract(s.masterKey, fullID)
		if err != nil {
			return FetchKeyResponse{}, NewError(KindFailure, "key extraction failed")
		}
		encrypted, err := elgamal.EncryptG1(usk, pk)
		if err != nil {
			return FetchKeyResponse{}, NewError(KindFailure, "encrypting decryption key failed")
		}
		keys = append(keys, DecryptionKey{ID: append([]byte(nil), fullID...), EncryptedKey: encrypted})
	}

	return FetchKeyResponse{DecryptionKeys: keys}, nil
}

// checkSignature validates the certificate's validity window, the
// user's signature over the certificate message for pkgID (the
// package the request's PTB calls), and the session key's signature
// over the signed request.
func (s *Server) checkSignature(req FetchKeyRequest, pkgID ptb.ObjectID, nowMs uint64) error {
	c := req.Certificate
	if err := cert.Validate(c, nowMs); err != nil {
		return NewError(KindInvalidCertificate, "certificate expired or not yet valid")
	}

	msg := signedmsg.Message([32]byte(pkgID), c.SessionVK, c.CreationTimeMs, c.TTLMin)
	if err := cert.VerifyUserSignature(c.Scheme, c.UserPublicKey, []byte(msg), c.Signature); err != nil {
		return NewError(KindInvalidSignature, "user signature does not verify")
	}

	signedReq := signedmsg.Request(ptbBCSPlaceholder(req.PTBBase64), req.EncKey, req.EncVerificationKey)
	if err := cert.VerifySessionSignature(c.SessionVK, signedReq, req.RequestSignature); err != nil {
		return NewError(KindInvalidSessionSignature, "session signature does not verify")
	}
	return nil
}

// ptbBCSPlaceholder returns the raw base64-decoded PTB bytes: the PTB
// string the client posts is already the BCS encoding the session key
// signed over, so no re-encoding is needed here.
func ptbBCSPlaceholder(ptbBase64 string) []byte {
	b, err := base64.StdEncoding.DecodeString(ptbBase64)
	if err != nil {
		return nil
	}
	return b
}

// checkRequest decodes and validates the request's PTB, returning the
// validated PTB and its package id.
func (s *Server) checkRequest(ptbBase64 string) (ptb.Valid, ptb.ObjectID, error) {
	raw, err := base64.StdEncoding.DecodeString(ptbBase64)
	if err != nil {
		return ptb.Valid{}, ptb.ObjectID{}, NewError(KindInvalidPTB, "malformed base64 ptb")
	}
	decoded, err := decodePTB(raw)
	if err != nil {
		return ptb.Valid{}, ptb.ObjectID{}, NewError(KindInvalidPTB, "malformed ptb encoding")
	}
	valid, err := ptb.Validate(decoded)
	if err != nil {
		return ptb.Valid{}, ptb.ObjectID{}, NewError(KindInvalidPTB, "ptb failed validation")
	}
	return valid, valid.PackageID(), nil
}

// checkFreshness enforces the staleness gate against the current
// checkpoint-timestamp slot.
func (s *Server) checkFreshness(ctx context.Context) error {
	ts, ok := s.checkpointSlot.Get()
	if !ok {
		return NewError(KindFailure, "checkpoint timestamp unavailable")
	}
	now := uint64(time.Now().UnixMilli())
	var delay time.Duration
	if now > ts {
		delay = time.Duration(now-ts) * time.Millisecond
	}
	s.metrics.ObserveCheckpointTimestampDelay(delay)
	if delay > s.allowedStaleness {
		return NewError(KindFailure, "checkpoint timestamp too stale")
	}
	return nil
}

// checkPackageVersion rejects requests naming a package version that
// is neither the first-published nor the latest, returning the
// package's version pair on success.
func (s *Server) checkPackageVersion(ctx context.Context, pkgID ptb.ObjectID) (PackageVersions, error) {
	start := time.Now()
	versions, err := s.resolver.Resolve(ctx, pkgID)
	s.metrics.ObserveFetchPackageIDsDuration(time.Since(start))
	if err != nil {
		return PackageVersions{}, NewError(KindInvalidPackage, "unknown package")
	}
	if pkgID != versions.First && pkgID != versions.Latest {
		return PackageVersions{}, NewError(KindOldPackageVersion, "package version is neither first nor latest")
	}
	return versions, nil
}

// checkPolicy dry-runs the request's PTB against the chain as the
// certificate's user, classifying any non-success effects status as
// NoAccess (the spec leaves the gas-exhaustion-vs-deny distinction
// unresolved, matching the reference server's own open TODO) and any
// transport failure as Failure.
func (s *Server) checkPolicy(ctx context.Context, req FetchKeyRequest, valid ptb.Valid) error {
	start := time.Now()
	defer func() { s.metrics.ObserveCheckPolicyDuration(time.Since(start)) }()

	raw, err := base64.StdEncoding.DecodeString(req.PTBBase64)
	if err != nil {
		return NewError(KindInvalidPTB, "malformed base64 ptb")
	}
	ok, err := s.chain.DryRunTransaction(ctx, raw, req.Certificate.User, GasBudget)
	if err != nil {
		return NewError(KindFailure, "dry-run transport failure")
	}
	if !ok {
		return NewError(KindNoAccess, "policy denied access")
	}
	return nil
}

// decodePTB parses a BCS-encoded ProgrammableTransaction off the wire.
// The local ptb package owns only the minimal type set the calling
// convention needs (see internal/ptb), so this performs that narrow
// decode directly rather than round-tripping through a general BCS
// struct decoder.
func decodePTB(raw []byte) (ptb.ProgrammableTransaction, error) {
	r := bcs.NewReader(raw)

	numInputs, err := r.ReadULEB128()
	if err != nil {
		return ptb.ProgrammableTransaction{}, err
	}
	inputs := make([]ptb.CallArg, 0, numInputs)
	for i := uint64(0); i < numInputs; i++ {
		kind, err := r.ReadU8()
		if err != nil {
			return ptb.ProgrammableTransaction{}, err
		}
		switch kind {
		case 0: // Pure
			b, err := r.ReadBytes()
			if err != nil {
				return ptb.ProgrammableTransaction{}, err
			}
			inputs = append(inputs, ptb.CallArg{Kind: ptb.CallArgPure, PureBytes: b})
		case 1: // Object or other non-pure input; opaque to this validator.
			b, err := r.ReadBytes()
			if err != nil {
				return ptb.ProgrammableTransaction{}, err
			}
			inputs = append(inputs, ptb.CallArg{Kind: ptb.CallArgObject, PureBytes: b})
		default:
			return ptb.ProgrammableTransaction{}, bcs.ErrMalformed
		}
	}

	numCommands, err := r.ReadULEB128()
	if err != nil {
		return ptb.ProgrammableTransaction{}, err
	}
	commands := make([]ptb.Command, 0, numCommands)
	for i := uint64(0); i < numCommands; i++ {
		kind, err := r.ReadU8()
		if err != nil {
			return ptb.ProgrammableTransaction{}, err
		}
		if kind != 0 {
			commands = append(commands, ptb.Command{Kind: ptb.CommandOther})
			continue
		}
		pkgBytes, err := r.ReadFixedBytes(32)
		if err != nil {
			return ptb.ProgrammableTransaction{}, err
		}
		var pkg ptb.ObjectID
		copy(pkg[:], pkgBytes)

		module, err := r.ReadBytes()
		if err != nil {
			return ptb.ProgrammableTransaction{}, err
		}
		function, err := r.ReadBytes()
		if err != nil {
			return ptb.ProgrammableTransaction{}, err
		}

		numArgs, err := r.ReadULEB128()
		if err != nil {
			return ptb.ProgrammableTransaction{}, err
		}
		args := make([]ptb.Argument, 0, numArgs)
		for j := uint64(0); j < numArgs; j++ {
			argKind, err := r.ReadU8()
			if err != nil {
				return ptb.ProgrammableTransaction{}, err
			}
			if argKind == 0 {
				idx, err := r.ReadU8()
				if err != nil {
					return ptb.ProgrammableTransaction{}, err
				}
				args = append(args, ptb.Argument{Kind: ptb.ArgumentInput, Input: uint16(idx)})
			} else {
				args = append(args, ptb.Argument{Kind: ptb.ArgumentOther})
			}
		}

		commands = append(commands, ptb.Command{
			Kind: ptb.CommandMoveCall,
			Call: ptb.MoveCall{
				Package:  pkg,
				Module:   string(module),
				Function: string(function),
				Arguments: args,
			},
		})
	}

	return ptb.ProgrammableTransaction{Inputs: inputs, Commands: commands}, nil
}
