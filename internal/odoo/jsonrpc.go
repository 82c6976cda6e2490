package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

// jsonRPCRequest is the envelope Odoo's /jsonrpc endpoint expects.
type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  jsonRPCParams `json:"params"`
	ID      int64         `json:"id"`
}

type jsonRPCParams struct {
	Service string        `json:"service"`
	Method  string        `json:"method"`
	Args    []interface{} `json:"args"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *jsonRPCError) text() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return e.Message
}

var jsonRPCID atomic.Int64

// jsonRPCCall posts one JSON-RPC envelope and unmarshals the result.
// Any HTTP, envelope or remote error is returned as a *types.RelayError.
func (c *Client) jsonRPCCall(ctx context.Context, baseURL, service, method string, args []interface{}, timeout time.Duration, result interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	envelope := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  jsonRPCParams{Service: service, Method: method, Args: args},
		ID:      jsonRPCID.Add(1),
	}

	bodyBytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/jsonrpc", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	slog.Debug("Making JSON-RPC request", "service", service, "method", method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &types.RelayError{Message: fmt.Sprintf("JSON-RPC request failed: %v", err), StatusCode: http.StatusBadGateway}
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.RelayError{Message: fmt.Sprintf("failed to read JSON-RPC response: %v", err), StatusCode: http.StatusBadGateway}
	}

	if resp.StatusCode >= 400 {
		return &types.RelayError{
			Message:    fmt.Sprintf("Odoo returned HTTP %d for %s.%s", resp.StatusCode, service, method),
			StatusCode: http.StatusBadGateway,
		}
	}

	var parsed jsonRPCResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return &types.RelayError{Message: fmt.Sprintf("malformed JSON-RPC response: %v", err), StatusCode: http.StatusBadGateway}
	}
	if parsed.Error != nil {
		return &types.RelayError{
			Message:    fmt.Sprintf("Odoo RPC error: %s", parsed.Error.text()),
			StatusCode: http.StatusBadGateway,
		}
	}

	if result != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, result); err != nil {
			return &types.RelayError{Message: fmt.Sprintf("failed to parse JSON-RPC result: %v", err), StatusCode: http.StatusBadGateway}
		}
	}

	return nil
}

// authenticateJSON performs common.authenticate over JSON-RPC. A transport
// failure comes back as an error; a false or absent uid is not an error but
// an invalid-credentials result, mirroring how Odoo itself reports it.
func (c *Client) authenticateJSON(ctx context.Context, creds types.Credentials) (*types.AuthResult, error) {
	var raw interface{}
	err := c.jsonRPCCall(ctx, creds.URL, "common", "authenticate",
		[]interface{}{creds.Database, creds.Username, creds.Password, map[string]interface{}{}},
		c.cfg.AuthTimeout, &raw)
	if err != nil {
		return nil, err
	}

	if uid, ok := asInt(raw); ok && uid != 0 {
		return &types.AuthResult{Success: true, UID: uid}, nil
	}
	return &types.AuthResult{Success: false, Error: "Invalid credentials", Status: http.StatusUnauthorized}, nil
}

// executeKwJSON wraps object.execute_kw for an authenticated session.
func (c *Client) executeKwJSON(ctx context.Context, creds types.Credentials, uid int, model, method string, args []interface{}, kwargs map[string]interface{}, result interface{}) error {
	callArgs := []interface{}{creds.Database, uid, creds.Password, model, method, args}
	if kwargs != nil {
		callArgs = append(callArgs, kwargs)
	}
	return c.jsonRPCCall(ctx, creds.URL, "object", "execute_kw", callArgs, c.cfg.DataTimeout, result)
}

// fetchSalesOrdersJSON retrieves the total count plus one page of sale.order
// records. The count call uses an empty filter so Count reflects the whole
// dataset, not the page; the two calls are not transactional and the remote
// dataset may change between them, which is accepted.
func (c *Client) fetchSalesOrdersJSON(ctx context.Context, creds types.Credentials, uid, limit, offset int) ([]types.SalesOrder, int, error) {
	var rawCount interface{}
	if err := c.executeKwJSON(ctx, creds, uid, "sale.order", "search_count",
		[]interface{}{[]interface{}{}}, nil, &rawCount); err != nil {
		return nil, 0, err
	}
	count, _ := asInt(rawCount)

	var records []types.Record
	if err := c.executeKwJSON(ctx, creds, uid, "sale.order", "search_read",
		[]interface{}{[]interface{}{}},
		map[string]interface{}{
			"fields": salesOrderFields,
			"limit":  limit,
			"offset": offset,
		}, &records); err != nil {
		return nil, 0, err
	}

	orders := make([]types.SalesOrder, 0, len(records))
	for _, record := range records {
		orders = append(orders, normalizeSalesOrder(record))
	}
	return orders, count, nil
}
