package keyserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/sealhq/core/internal/cert"
	"github.com/sealhq/core/internal/ptb"
)

// FakeChainClient is a fully deterministic, in-memory ChainClient used
// by tests: package versions, checkpoint timestamp, and gas price are
// all preseeded, and dry-run outcomes are decided by a caller-supplied
// policy function keyed on the sender address.
type FakeChainClient struct {
	mu sync.Mutex

	Versions            map[ptb.ObjectID]PackageVersions
	CheckpointTimestamp uint64
	GasPrice            uint64
	// Policy decides whether sender is allowed to run the given PTB
	// bytes. A nil Policy allows every dry-run.
	Policy func(ptbBytes []byte, sender cert.Address) bool
}

// NewFakeChainClient returns an empty fake; populate its fields (or
// use AddPackage) before use.
func NewFakeChainClient() *FakeChainClient {
	return &FakeChainClient{Versions: make(map[ptb.ObjectID]PackageVersions)}
}

// AddPackage registers pkgID with itself as both first and latest
// version, the common case for a freshly-published, never-upgraded
// package.
func (f *FakeChainClient) AddPackage(pkgID ptb.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Versions[pkgID] = PackageVersions{First: pkgID, Latest: pkgID}
}

func (f *FakeChainClient) FetchFirstAndLastPackageVersion(_ context.Context, pkgID ptb.ObjectID) (PackageVersions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Versions[pkgID]
	if !ok {
		return PackageVersions{}, fmt.Errorf("keyserver: unknown package %x", pkgID)
	}
	return v, nil
}

func (f *FakeChainClient) LatestCheckpointTimestampMs(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CheckpointTimestamp, nil
}

func (f *FakeChainClient) ReferenceGasPrice(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.GasPrice, nil
}

func (f *FakeChainClient) DryRunTransaction(_ context.Context, ptbBytes []byte, sender cert.Address, _ uint64) (bool, error) {
	f.mu.Lock()
	policy := f.Policy
	f.mu.Unlock()
	if policy == nil {
		return true, nil
	}
	return policy(ptbBytes, sender), nil
}
