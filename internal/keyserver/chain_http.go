package keyserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sealhq/core/internal/cert"
	"github.com/sealhq/core/internal/ptb"
)

// HTTPChainClient is a thin JSON-RPC/GraphQL client against a full
// node, standing in for the corpus's absent chain SDK. It speaks just
// enough of the wire protocol to satisfy ChainClient; it does not
// attempt general-purpose transaction building.
type HTTPChainClient struct {
	Network Network
	HTTP    *http.Client
}

// NewHTTPChainClient builds a client for network with a 10s default
// timeout.
func NewHTTPChainClient(network Network) *HTTPChainClient {
	return &HTTPChainClient{Network: network, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPChainClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Network.NodeURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return err
	}
	if rpc.Error != nil {
		return fmt.Errorf("keyserver: rpc %s: %s", method, rpc.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rpc.Result, out)
}

func (c *HTTPChainClient) LatestCheckpointTimestampMs(ctx context.Context) (uint64, error) {
	var seq string
	if err := c.call(ctx, "sui_getLatestCheckpointSequenceNumber", nil, &seq); err != nil {
		return 0, err
	}
	var checkpoint struct {
		TimestampMs string `json:"timestampMs"`
	}
	if err := c.call(ctx, "sui_getCheckpoint", []interface{}{seq}, &checkpoint); err != nil {
		return 0, err
	}
	ts, err := strconv.ParseUint(checkpoint.TimestampMs, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("keyserver: malformed checkpoint timestamp: %w", err)
	}
	return ts, nil
}

func (c *HTTPChainClient) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	var rgp string
	if err := c.call(ctx, "suix_getReferenceGasPrice", nil, &rgp); err != nil {
		return 0, err
	}
	return strconv.ParseUint(rgp, 10, 64)
}

func (c *HTTPChainClient) DryRunTransaction(ctx context.Context, ptbBytes []byte, _ cert.Address, _ uint64) (bool, error) {
	txB64 := base64.StdEncoding.EncodeToString(ptbBytes)
	var result struct {
		Effects struct {
			Status struct {
				Status string `json:"status"`
			} `json:"status"`
		} `json:"effects"`
	}
	if err := c.call(ctx, "sui_dryRunTransactionBlock", []interface{}{txB64}, &result); err != nil {
		return false, err
	}
	return result.Effects.Status.Status == "success", nil
}

func (c *HTTPChainClient) FetchFirstAndLastPackageVersion(ctx context.Context, pkgID ptb.ObjectID) (PackageVersions, error) {
	query := fmt.Sprintf(`{"query":"query { latestPackage(address: \"0x%x\") { address packageAtVersion(version: 1) { address } } }"}`, pkgID[:])
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Network.GraphQLURL(), bytes.NewBufferString(query))
	if err != nil {
		return PackageVersions{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return PackageVersions{}, err
	}
	defer resp.Body.Close()

	var gql struct {
		Data struct {
			LatestPackage struct {
				Address         string `json:"address"`
				PackageAtVersion struct {
					Address string `json:"address"`
				} `json:"packageAtVersion"`
			} `json:"latestPackage"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gql); err != nil {
		return PackageVersions{}, err
	}
	first, err := parseObjectIDHex(gql.Data.LatestPackage.PackageAtVersion.Address)
	if err != nil {
		return PackageVersions{}, err
	}
	latest, err := parseObjectIDHex(gql.Data.LatestPackage.Address)
	if err != nil {
		return PackageVersions{}, err
	}
	return PackageVersions{First: first, Latest: latest}, nil
}

func parseObjectIDHex(s string) (ptb.ObjectID, error) {
	var id ptb.ObjectID
	s = trimHexPrefix(s)
	if len(s) != len(id)*2 {
		return id, fmt.Errorf("keyserver: malformed object id %q", s)
	}
	for i := range id {
		b, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return id, err
		}
		id[i] = byte(b)
	}
	return id, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
