package keyserver

import (
	"context"

	"github.com/sealhq/core/internal/cert"
	"github.com/sealhq/core/internal/ptb"
)

// ChainClient abstracts every on-chain read the control plane needs:
// package-version lookups, checkpoint/gas-price polling, and policy
// dry-runs. Production talks to a full node over JSON-RPC
// (chain_http.go); tests substitute a deterministic in-memory fake
// (chain_fake.go).
type ChainClient interface {
	FetchFirstAndLastPackageVersion(ctx context.Context, pkgID ptb.ObjectID) (PackageVersions, error)
	LatestCheckpointTimestampMs(ctx context.Context) (uint64, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	// DryRunTransaction executes the given PTB bytes as sender without
	// committing, returning whether the transaction's effects status
	// was success.
	DryRunTransaction(ctx context.Context, ptbBytes []byte, sender cert.Address, gasBudget uint64) (bool, error)
}
