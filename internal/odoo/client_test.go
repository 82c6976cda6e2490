package odoo

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagar-patil-here/Netzero-new/internal/config"
	"github.com/sagar-patil-here/Netzero-new/internal/testutils"
	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

func testOdooConfig() config.OdooConfig {
	return config.OdooConfig{
		AuthTimeout: 5 * time.Second,
		DataTimeout: 5 * time.Second,
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
		},
		// Caching is exercised separately; most tests want every call to
		// reach the mock.
		UIDCacheTTL: -1,
	}
}

func TestAuthenticateJSONRPC(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	client := NewClient(testOdooConfig())

	creds := mock.Credentials()
	// Trailing slash is stripped before any call is made.
	creds.URL += "/"

	result := client.Authenticate(context.Background(), creds)
	require.True(t, result.Success)
	assert.Equal(t, testutils.TestUID, result.UID)
	assert.Empty(t, result.Error)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	client := NewClient(testOdooConfig())

	creds := mock.Credentials()
	creds.Password = "wrong"

	result := client.Authenticate(context.Background(), creds)
	require.False(t, result.Success)
	assert.Equal(t, "Invalid credentials", result.Error)
	assert.Equal(t, http.StatusUnauthorized, result.Status)
	// JSON rejection falls back to XML once; both dialects were consulted.
	assert.Equal(t, 2, mock.RemoteCalls())
}

func TestAuthenticateFallsBackOnReportedFailure(t *testing.T) {
	// The auth fallback trigger is result-based: a JSON-RPC answer of
	// "false" still leads to an XML-RPC attempt, which here succeeds.
	mock := testutils.NewMockOdoo(t)
	mock.JSONInvalidCredentials = true
	client := NewClient(testOdooConfig())

	result := client.Authenticate(context.Background(), mock.Credentials())
	require.True(t, result.Success)
	assert.Equal(t, testutils.TestUID, result.UID)
}

func TestAuthenticateFallsBackOnTransportFailure(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	mock.FailJSONRPC = true
	client := NewClient(testOdooConfig())

	result := client.Authenticate(context.Background(), mock.Credentials())
	require.True(t, result.Success)
	assert.Equal(t, testutils.TestUID, result.UID)
}

func TestAuthenticateBothDialectsFail(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	mock.FailJSONRPC = true
	mock.FailXMLRPC = true
	client := NewClient(testOdooConfig())

	result := client.Authenticate(context.Background(), mock.Credentials())
	require.False(t, result.Success)
	// The error from the last attempted path (XML-RPC) surfaces.
	assert.Contains(t, result.Error, "XML-RPC")
	assert.Equal(t, http.StatusBadGateway, result.Status)
}

func TestAuthenticateUIDCache(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	cfg := testOdooConfig()
	cfg.UIDCacheTTL = time.Minute
	client := NewClient(cfg)

	first := client.Authenticate(context.Background(), mock.Credentials())
	require.True(t, first.Success)
	callsAfterFirst := mock.RemoteCalls()

	second := client.Authenticate(context.Background(), mock.Credentials())
	require.True(t, second.Success)
	assert.Equal(t, first.UID, second.UID)
	assert.Equal(t, callsAfterFirst, mock.RemoteCalls())
}

func TestFetchSalesOrdersJSONRPC(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	client := NewClient(testOdooConfig())

	result := client.FetchSalesOrders(context.Background(), mock.Credentials(), 100, 0)
	require.True(t, result.Success, "fetch failed: %s", result.Error)
	require.Len(t, result.Data, 3)
	assert.Equal(t, 3, result.Count)

	first := result.Data[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "S00001", first.Name)
	assert.Equal(t, "Acme Co", first.Customer)
	require.NotNil(t, first.CustomerID)
	assert.Equal(t, 7, *first.CustomerID)
	assert.Equal(t, float64(250), first.Total)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, 3, first.LineCount)

	// The sparse order gets every default plus the derived total.
	sparse := result.Data[1]
	assert.Equal(t, "N/A", sparse.Customer)
	assert.Nil(t, sparse.CustomerID)
	assert.Equal(t, float64(138), sparse.Total)
	assert.Equal(t, "INR", sparse.Currency)
	assert.Equal(t, "", sparse.Note)
	assert.Equal(t, 0, sparse.LineCount)
}

func TestFetchSalesOrdersPagination(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	client := NewClient(testOdooConfig())

	result := client.FetchSalesOrders(context.Background(), mock.Credentials(), 2, 0)
	require.True(t, result.Success)
	assert.Len(t, result.Data, 2)
	// Count reflects the full dataset, not the page.
	assert.Equal(t, 3, result.Count)

	next := client.FetchSalesOrders(context.Background(), mock.Credentials(), 2, 2)
	require.True(t, next.Success)
	require.Len(t, next.Data, 1)
	assert.Equal(t, 3, next.Data[0].ID)
}

func TestFetchSalesOrdersAuthenticationFailureShortCircuits(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	client := NewClient(testOdooConfig())

	creds := mock.Credentials()
	creds.Password = "wrong"

	result := client.FetchSalesOrders(context.Background(), creds, 100, 0)
	require.False(t, result.Success)
	assert.Equal(t, "Authentication failed", result.Error)
	assert.Equal(t, http.StatusUnauthorized, result.Status)
	// Only the two authentication attempts reached the instance; no data
	// calls were made.
	assert.Equal(t, 2, mock.RemoteCalls())
}

func TestFetchSalesOrdersXMLFallback(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	mock.FailJSONRPC = true
	client := NewClient(testOdooConfig())

	result := client.FetchSalesOrders(context.Background(), mock.Credentials(), 100, 0)
	require.True(t, result.Success, "fetch failed: %s", result.Error)
	require.Len(t, result.Data, 3)
	assert.Equal(t, 3, result.Count)

	// Normalization is identical across dialects.
	sparse := result.Data[1]
	assert.Equal(t, "N/A", sparse.Customer)
	assert.Equal(t, float64(138), sparse.Total)
	assert.Equal(t, "INR", sparse.Currency)
}

func TestFetchSalesOrdersXMLZeroMatches(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	mock.FailJSONRPC = true
	mock.Orders = nil
	client := NewClient(testOdooConfig())

	result := client.FetchSalesOrders(context.Background(), mock.Credentials(), 100, 0)
	require.True(t, result.Success)
	assert.Equal(t, []types.SalesOrder{}, result.Data)
	assert.Equal(t, 0, result.Count)
	// Zero ids short-circuits before the read step.
	assert.Equal(t, 0, mock.XMLReadCalls())
}

func TestFetchSalesOrdersXMLCountBestEffort(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	mock.FailJSONRPC = true
	mock.FailXMLCount = true
	client := NewClient(testOdooConfig())

	result := client.FetchSalesOrders(context.Background(), mock.Credentials(), 2, 0)
	require.True(t, result.Success, "fetch failed: %s", result.Error)
	assert.Len(t, result.Data, 2)
	// The count call failed, so the page length stands in.
	assert.Equal(t, 2, result.Count)
}

func TestFetchSalesOrdersIdempotent(t *testing.T) {
	mock := testutils.NewMockOdoo(t)
	client := NewClient(testOdooConfig())

	first := client.FetchSalesOrders(context.Background(), mock.Credentials(), 100, 0)
	second := client.FetchSalesOrders(context.Background(), mock.Credentials(), 100, 0)
	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Count, second.Count)
}

func TestXMLEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		service string
		want    string
		wantErr bool
	}{
		{
			name:    "https default port",
			url:     "https://demo.odoo.com",
			service: "common",
			want:    "https://demo.odoo.com:443/xmlrpc/2/common",
		},
		{
			name:    "http default port",
			url:     "http://erp.internal",
			service: "object",
			want:    "http://erp.internal:80/xmlrpc/2/object",
		},
		{
			name:    "explicit port preserved",
			url:     "https://erp.internal:8069",
			service: "common",
			want:    "https://erp.internal:8069/xmlrpc/2/common",
		},
		{
			name:    "missing scheme rejected",
			url:     "erp.internal",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := xmlEndpoint(tt.url, tt.service)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
