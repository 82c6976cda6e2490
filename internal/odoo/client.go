// Package odoo provides a client for Odoo's external RPC API. Authentication
// and data calls go over JSON-RPC (/jsonrpc) first and fall back to XML-RPC
// (/xmlrpc/2/common, /xmlrpc/2/object) when the primary dialect fails, which
// keeps older and reverse-proxied Odoo deployments reachable.
package odoo

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/sagar-patil-here/Netzero-new/internal/config"
	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

// salesOrderFields is the fixed projection requested from sale.order on both
// RPC dialects. Normalization in normalize.go depends on exactly these keys.
var salesOrderFields = []string{
	"id", "name", "partner_id", "date_order",
	"amount_total", "amount_untaxed", "amount_tax",
	"currency_id", "state", "user_id", "team_id",
	"client_order_ref", "note", "order_line",
}

// Client talks to an Odoo instance identified per call by Credentials.
// It holds no instance state beyond transport plumbing, a rate limiter and a
// short-lived uid cache, so one Client serves all inbound requests.
type Client struct {
	cfg             config.OdooConfig
	httpClient      *http.Client
	rpcRoundTripper http.RoundTripper
	rateLimiter     *rate.Limiter
	uidCache        *cache.Cache
	tracer          trace.Tracer
}

// NewClient creates an Odoo client from configuration.
func NewClient(cfg config.OdooConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// XML-RPC calls have no per-call context, so the data-call bound is
		// enforced here at the transport for parity with the JSON path.
		ResponseHeaderTimeout: cfg.DataTimeout,
	}
	if !cfg.VerifyTLS {
		// Private Odoo deployments commonly run on self-signed certificates.
		// Regulated environments must set odoo.verify_tls: true.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	roundTripper := otelhttp.NewTransport(transport)

	var uidCache *cache.Cache
	if cfg.UIDCacheTTL > 0 {
		uidCache = cache.New(cfg.UIDCacheTTL, cfg.UIDCacheTTL*2)
	}

	return &Client{
		cfg:             cfg,
		httpClient:      &http.Client{Transport: roundTripper},
		rpcRoundTripper: roundTripper,
		rateLimiter: rate.NewLimiter(
			rate.Limit(cfg.RateLimit.RequestsPerSecond),
			cfg.RateLimit.Burst,
		),
		uidCache: uidCache,
		tracer:   otel.Tracer("odoo-client"),
	}
}

// Authenticate verifies credentials against the Odoo instance and returns the
// session uid. JSON-RPC is attempted first; any failure there, including a
// reported invalid-credentials result, falls back once to XML-RPC. Failures
// never escape as errors or panics; they surface in the result.
func (c *Client) Authenticate(ctx context.Context, creds types.Credentials) (result *types.AuthResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered panic during authenticate", "panic", r)
			result = &types.AuthResult{Success: false, Error: fmt.Sprintf("internal error: %v", r), Status: http.StatusInternalServerError}
		}
	}()

	ctx, span := c.tracer.Start(ctx, "odoo.authenticate",
		trace.WithAttributes(attribute.String("odoo.database", creds.Database)))
	defer span.End()

	creds.URL = strings.TrimSuffix(creds.URL, "/")

	if uid, ok := c.cachedUID(creds); ok {
		slog.Debug("Authentication served from uid cache", "database", creds.Database)
		return &types.AuthResult{Success: true, UID: uid}
	}

	jsonResult, err := c.authenticateJSON(ctx, creds)
	if err == nil && jsonResult.Success {
		c.storeUID(creds, jsonResult.UID)
		slog.Info("Authenticated via JSON-RPC", "database", creds.Database, "uid", jsonResult.UID)
		return jsonResult
	}
	if err != nil {
		slog.Warn("JSON-RPC authentication failed, falling back to XML-RPC", "error", err)
	} else {
		slog.Warn("JSON-RPC reported invalid credentials, retrying via XML-RPC", "database", creds.Database)
	}

	xmlResult := c.authenticateXML(ctx, creds)
	if xmlResult.Success {
		c.storeUID(creds, xmlResult.UID)
		slog.Info("Authenticated via XML-RPC", "database", creds.Database, "uid", xmlResult.UID)
	}
	return xmlResult
}

// FetchSalesOrders authenticates, then retrieves and normalizes sale.order
// records. limit/offset paginate the data; Count always reflects the remote
// total. The JSON fetch helper returns an error on any HTTP or parsing
// failure, and only that error triggers the XML-RPC fallback.
func (c *Client) FetchSalesOrders(ctx context.Context, creds types.Credentials, limit, offset int) (result *types.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered panic during sales-order fetch", "panic", r)
			result = &types.FetchResult{Success: false, Error: fmt.Sprintf("internal error: %v", r), Status: http.StatusInternalServerError}
		}
	}()

	ctx, span := c.tracer.Start(ctx, "odoo.fetch_sales_orders",
		trace.WithAttributes(
			attribute.String("odoo.database", creds.Database),
			attribute.Int("odoo.limit", limit),
			attribute.Int("odoo.offset", offset),
		))
	defer span.End()

	creds.URL = strings.TrimSuffix(creds.URL, "/")
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	auth := c.Authenticate(ctx, creds)
	if !auth.Success {
		return &types.FetchResult{Success: false, Error: "Authentication failed", Status: http.StatusUnauthorized}
	}

	orders, count, err := c.fetchSalesOrdersJSON(ctx, creds, auth.UID, limit, offset)
	if err != nil {
		slog.Warn("JSON-RPC fetch failed, falling back to XML-RPC", "error", err)
		return c.fetchSalesOrdersXML(ctx, creds, auth.UID, limit, offset)
	}

	slog.Info("Sales orders fetched via JSON-RPC",
		"database", creds.Database,
		"returned", len(orders),
		"total", count)
	return &types.FetchResult{Success: true, Data: orders, Count: count}
}

// cachedUID returns a previously authenticated uid for the credential tuple.
func (c *Client) cachedUID(creds types.Credentials) (int, bool) {
	if c.uidCache == nil {
		return 0, false
	}
	if cached, ok := c.uidCache.Get(credentialKey(creds)); ok {
		if uid, ok := cached.(int); ok {
			return uid, true
		}
	}
	return 0, false
}

func (c *Client) storeUID(creds types.Credentials, uid int) {
	if c.uidCache == nil {
		return
	}
	c.uidCache.Set(credentialKey(creds), uid, cache.DefaultExpiration)
}

// credentialKey hashes the full credential tuple so raw passwords never sit
// in the cache.
func credentialKey(creds types.Credentials) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		creds.URL, creds.Database, creds.Username, creds.Password,
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}
