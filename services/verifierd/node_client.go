package verifierd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// NodeClient exposes the minimal RPC surface the daemon needs to act
// as an escrow oracle.
type NodeClient interface {
	SubmitScore(ctx context.Context, dealID, caller string, score uint8) error
	DealSnapshot(ctx context.Context, dealID string) (json.RawMessage, error)
}

// RPCNodeClient is a lightweight JSON-RPC client for the ledger node.
type RPCNodeClient struct {
	baseURL   string
	authToken string
	http      *http.Client
	nextID    atomic.Int64
}

// NewRPCNodeClient constructs a new RPC client.
func NewRPCNodeClient(baseURL, authToken string, timeout time.Duration) *RPCNodeClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RPCNodeClient{
		baseURL:   baseURL,
		authToken: authToken,
		http:      &http.Client{Timeout: timeout},
	}
}

// SubmitScore records the verification score for a deal on chain.
func (c *RPCNodeClient) SubmitScore(ctx context.Context, dealID, caller string, score uint8) error {
	params := []interface{}{map[string]interface{}{
		"id":     dealID,
		"caller": caller,
		"score":  score,
	}}
	var result string
	if err := c.call(ctx, "escrow_submitScore", params, &result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("unexpected submit result %q", result)
	}
	return nil
}

// DealSnapshot fetches the current state of a deal record.
func (c *RPCNodeClient) DealSnapshot(ctx context.Context, dealID string) (json.RawMessage, error) {
	params := []interface{}{map[string]interface{}{"id": dealID}}
	var result json.RawMessage
	if err := c.call(ctx, "escrow_get", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *RPCNodeClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	id := c.nextID.Add(1)
	bodyStruct := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	buf, err := json.Marshal(bodyStruct)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.authToken) != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node rpc %s failed: status=%d", method, resp.StatusCode)
	}
	var rpcResp struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("node rpc error: %s", rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if len(rpcResp.Result) == 0 {
		return fmt.Errorf("node rpc returned empty result")
	}
	return json.Unmarshal(rpcResp.Result, out)
}
