// Package posterix is a minimal JSON-RPC 2.0 client for the Posterix
// order-management API.
package posterix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const DefaultURL = "http://api.posterix.pro/v2"

type Client struct {
	URL        string
	Token      string
	Company    int
	HTTPClient *http.Client
}

type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	// ID is kept raw: servers may echo it as a string, a number or null.
	ID json.RawMessage `json:"id,omitempty"`
}

type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("posterix rpc error %d: %s", e.Code, e.Message)
}

// ListOrdersParams are the params of the ListOrders method. Filter bounds
// are unix seconds encoded as strings.
type ListOrdersParams struct {
	Token   string           `json:"token"`
	Company int              `json:"company"`
	Filters ListOrdersFilter `json:"filters"`
}

type ListOrdersFilter struct {
	From string `json:"from"`
	Till string `json:"till"`
}

func NewClient(url, token string, company int) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		URL:     url,
		Token:   token,
		Company: company,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListOrders returns the raw result of ListOrders for orders between from and till.
func (c *Client) ListOrders(ctx context.Context, from, till time.Time) (json.RawMessage, error) {
	return c.Call(ctx, "ListOrders", c.listOrdersParams(from, till))
}

// ListOrdersEnvelope is ListOrders returning the whole response, error member
// included.
func (c *Client) ListOrdersEnvelope(ctx context.Context, from, till time.Time) (*Response, error) {
	return c.Do(ctx, "ListOrders", c.listOrdersParams(from, till))
}

func (c *Client) listOrdersParams(from, till time.Time) ListOrdersParams {
	return ListOrdersParams{
		Token:   c.Token,
		Company: c.Company,
		Filters: ListOrdersFilter{
			From: strconv.FormatInt(from.Unix(), 10),
			Till: strconv.FormatInt(till.Unix(), 10),
		},
	}
}

// Call performs one JSON-RPC request and returns its result. An error member
// in the response is returned as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	rpcResp, err := c.Do(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// Do performs one JSON-RPC request and returns the decoded response as is.
// Transport and decoding failures are errors; an error member is not.
func (c *Client) Do(ctx context.Context, method string, params any) (*Response, error) {
	rpcReq := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      uuid.NewString(),
	}
	jsonData, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var rpcResp Response
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if !idMatches(rpcResp.ID, rpcReq.ID) {
		return nil, fmt.Errorf("response id %s does not match request id %q", rpcResp.ID, rpcReq.ID)
	}
	return &rpcResp, nil
}

// idMatches compares only string ids. Numeric and null ids carry nothing to
// check against the uuid we sent.
func idMatches(raw json.RawMessage, want string) bool {
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return true
	}
	return id == "" || id == want
}
