// Package keyserver implements the key-server control plane: request
// validation, certificate and policy checks, background chain-state
// updaters, and the HTTP surface that ties them together.
package keyserver

import (
	"fmt"
	"os"
	"strings"
)

// Network selects the chain environment a server instance talks to.
type Network struct {
	kind       networkKind
	nodeURL    string
	graphqlURL string
}

type networkKind byte

const (
	networkDevnet networkKind = iota
	networkTestnet
	networkMainnet
	networkCustom
)

var (
	Devnet  = Network{kind: networkDevnet}
	Testnet = Network{kind: networkTestnet}
	Mainnet = Network{kind: networkMainnet}
)

// Custom builds a Network pointed at caller-supplied node/GraphQL URLs.
func Custom(nodeURL, graphqlURL string) Network {
	return Network{kind: networkCustom, nodeURL: nodeURL, graphqlURL: graphqlURL}
}

// NodeURL returns the full-node RPC endpoint for the network.
func (n Network) NodeURL() string {
	switch n.kind {
	case networkDevnet:
		return "https://fullnode.devnet.sui.io:443"
	case networkTestnet:
		return "https://fullnode.testnet.sui.io:443"
	case networkMainnet:
		return "https://fullnode.mainnet.sui.io:443"
	default:
		return n.nodeURL
	}
}

// GraphQLURL returns the GraphQL endpoint used for package-version
// lookups.
func (n Network) GraphQLURL() string {
	switch n.kind {
	case networkDevnet:
		return "https://sui-devnet.mystenlabs.com/graphql"
	case networkTestnet:
		return "https://sui-testnet.mystenlabs.com/graphql"
	case networkMainnet:
		return "https://sui-mainnet.mystenlabs.com/graphql"
	default:
		return n.graphqlURL
	}
}

// NetworkFromString parses a NETWORK environment value. For "custom"
// it reads NODE_URL and GRAPHQL_URL from the environment.
func NetworkFromString(s string) (Network, error) {
	switch strings.ToLower(s) {
	case "devnet":
		return Devnet, nil
	case "testnet":
		return Testnet, nil
	case "mainnet":
		return Mainnet, nil
	case "custom":
		nodeURL := os.Getenv("NODE_URL")
		graphqlURL := os.Getenv("GRAPHQL_URL")
		if nodeURL == "" || graphqlURL == "" {
			return Network{}, fmt.Errorf("keyserver: NODE_URL and GRAPHQL_URL must be set for custom network")
		}
		return Custom(nodeURL, graphqlURL), nil
	default:
		return Network{}, fmt.Errorf("keyserver: unknown network %q", s)
	}
}
