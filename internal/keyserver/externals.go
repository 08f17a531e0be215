package keyserver

import (
	"context"

	"github.com/sealhq/core/internal/ptb"
)

// PackageVersions pairs a package's first-published and latest
// on-chain versions, the two values needed to classify a requested
// package id as current, old-but-valid, or unknown.
type PackageVersions struct {
	First  ptb.ObjectID
	Latest ptb.ObjectID
}

// PackageResolver fetches the first and latest version of a package,
// fronted by a cache so repeat lookups for the same package id avoid
// another round trip.
type PackageResolver struct {
	cache *Cache[ptb.ObjectID, PackageVersions]
	chain ChainClient
}

// NewPackageResolver wires a resolver over the given chain client with
// the control plane's default cache sizing.
func NewPackageResolver(chain ChainClient) *PackageResolver {
	return &PackageResolver{
		cache: NewCache[ptb.ObjectID, PackageVersions](DefaultCacheTTL, DefaultCacheSize),
		chain: chain,
	}
}

// Resolve returns the first and latest version of pkgID, consulting
// the cache before falling back to a GraphQL-backed chain lookup.
func (r *PackageResolver) Resolve(ctx context.Context, pkgID ptb.ObjectID) (PackageVersions, error) {
	if v, ok := r.cache.Get(pkgID); ok {
		return v, nil
	}
	v, err := r.chain.FetchFirstAndLastPackageVersion(ctx, pkgID)
	if err != nil {
		return PackageVersions{}, err
	}
	r.cache.Insert(pkgID, v)
	r.cache.Insert(v.First, v)
	r.cache.Insert(v.Latest, v)
	return v, nil
}
