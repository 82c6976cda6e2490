package odoo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/kolo/xmlrpc"

	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

// xmlEndpoint builds the XML-RPC endpoint for a service ("common" or
// "object"), filling in the scheme's default port when the URL carries none.
func xmlEndpoint(rawURL, service string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid Odoo URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid Odoo URL: %q", rawURL)
	}

	port := parsed.Port()
	if port == "" {
		port = "80"
		if parsed.Scheme == "https" {
			port = "443"
		}
	}

	return fmt.Sprintf("%s://%s:%s/xmlrpc/2/%s", parsed.Scheme, parsed.Hostname(), port, service), nil
}

// xmlCall opens an XML-RPC client for one call and closes it afterwards.
// The shared round tripper supplies TLS settings and the transport-level
// timeout bound.
func (c *Client) xmlCall(ctx context.Context, baseURL, service, method string, args []interface{}, reply interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	endpoint, err := xmlEndpoint(baseURL, service)
	if err != nil {
		return err
	}

	client, err := xmlrpc.NewClient(endpoint, c.rpcRoundTripper)
	if err != nil {
		return fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer func() { _ = client.Close() }()

	slog.Debug("Making XML-RPC request", "service", service, "method", method, "endpoint", endpoint)

	if err := client.Call(method, args, reply); err != nil {
		return &types.RelayError{
			Message:    fmt.Sprintf("XML-RPC %s.%s failed: %v", service, method, err),
			StatusCode: http.StatusBadGateway,
		}
	}
	return nil
}

// authenticateXML performs common.authenticate over XML-RPC. A falsy uid
// means the credentials were rejected.
func (c *Client) authenticateXML(ctx context.Context, creds types.Credentials) *types.AuthResult {
	var raw interface{}
	err := c.xmlCall(ctx, creds.URL, "common", "authenticate",
		[]interface{}{creds.Database, creds.Username, creds.Password, map[string]interface{}{}}, &raw)
	if err != nil {
		return &types.AuthResult{Success: false, Error: err.Error(), Status: statusOf(err)}
	}

	if uid, ok := asInt(raw); ok && uid != 0 {
		return &types.AuthResult{Success: true, UID: uid}
	}
	return &types.AuthResult{Success: false, Error: "Invalid credentials", Status: http.StatusUnauthorized}
}

// executeKwXML wraps object.execute_kw for an authenticated session.
func (c *Client) executeKwXML(ctx context.Context, creds types.Credentials, uid int, model, method string, args []interface{}, kwargs map[string]interface{}, reply interface{}) error {
	callArgs := []interface{}{creds.Database, uid, creds.Password, model, method, args}
	if kwargs != nil {
		callArgs = append(callArgs, kwargs)
	}
	return c.xmlCall(ctx, creds.URL, "object", "execute_kw", callArgs, reply)
}

// fetchSalesOrdersXML is the fallback fetch path: search for ids, count
// best-effort, then read the found ids. Zero matching ids short-circuits
// without attempting the read.
func (c *Client) fetchSalesOrdersXML(ctx context.Context, creds types.Credentials, uid, limit, offset int) *types.FetchResult {
	var rawIDs interface{}
	err := c.executeKwXML(ctx, creds, uid, "sale.order", "search",
		[]interface{}{[]interface{}{}},
		map[string]interface{}{"limit": limit, "offset": offset}, &rawIDs)
	if err != nil {
		return &types.FetchResult{Success: false, Error: err.Error(), Status: statusOf(err)}
	}

	ids := asIntSlice(rawIDs)
	if len(ids) == 0 {
		return &types.FetchResult{Success: true, Data: []types.SalesOrder{}, Count: 0}
	}

	// Total count is best effort on this path; a failure here is logged and
	// the page length stands in for it.
	count := len(ids)
	var rawCount interface{}
	if err := c.executeKwXML(ctx, creds, uid, "sale.order", "search_count",
		[]interface{}{[]interface{}{}}, nil, &rawCount); err != nil {
		slog.Warn("XML-RPC search_count failed, using page length as count", "error", err)
	} else if total, ok := asInt(rawCount); ok {
		count = total
	}

	var rawRecords interface{}
	if err := c.executeKwXML(ctx, creds, uid, "sale.order", "read",
		[]interface{}{ids},
		map[string]interface{}{"fields": salesOrderFields}, &rawRecords); err != nil {
		return &types.FetchResult{Success: false, Error: err.Error(), Status: statusOf(err)}
	}

	records, _ := rawRecords.([]interface{})
	orders := make([]types.SalesOrder, 0, len(records))
	for _, item := range records {
		if record, ok := item.(map[string]interface{}); ok {
			orders = append(orders, normalizeSalesOrder(record))
		}
	}

	slog.Info("Sales orders fetched via XML-RPC",
		"database", creds.Database,
		"returned", len(orders),
		"total", count)
	return &types.FetchResult{Success: true, Data: orders, Count: count}
}

// statusOf extracts the tagged HTTP status from a relay error, defaulting to
// bad gateway for plain transport errors.
func statusOf(err error) int {
	if relayErr, ok := err.(*types.RelayError); ok && relayErr.StatusCode != 0 {
		return relayErr.StatusCode
	}
	return http.StatusBadGateway
}
