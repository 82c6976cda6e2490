package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sagar-patil-here/Netzero-new/internal/config"
	"github.com/sagar-patil-here/Netzero-new/internal/odoo"
	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

// RelayServer exposes the Odoo client over a small JSON HTTP API. It
// validates input presence and maps client results to HTTP envelopes; it
// performs no business logic and never reshapes data the client normalized.
type RelayServer struct {
	config     *config.Config
	odooClient *odoo.Client
	httpServer *http.Server
	handler    http.Handler
}

// NewRelayServer creates the relay HTTP server around an Odoo client.
func NewRelayServer(cfg *config.Config, odooClient *odoo.Client) *RelayServer {
	relay := &RelayServer{
		config:     cfg,
		odooClient: odooClient,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/odoo/connect", relay.handleConnect)
	mux.HandleFunc("/api/odoo/sales", relay.handleSales)
	mux.HandleFunc("/health", relay.healthCheck)
	mux.HandleFunc("/", relay.notFound)

	var handler http.Handler = relay.withMiddleware(mux)
	if cfg.Telemetry.Enabled {
		handler = otelhttp.NewHandler(handler, "odoo-relay")
	}
	relay.handler = handler

	relay.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	return relay
}

// Handler returns the fully wrapped HTTP handler.
func (s *RelayServer) Handler() http.Handler {
	return s.handler
}

// Run starts the relay server and blocks until the context is cancelled or
// the listener fails.
func (s *RelayServer) Run(ctx context.Context) error {
	slog.Info("Starting relay server",
		"host", s.config.Server.Host,
		"port", s.config.Server.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down relay server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		slog.Error("Server error", "error", err)
		return err
	}
}

// handleConnect validates the credential fields, authenticates against Odoo
// and maps the result straight onto the HTTP envelope.
func (s *RelayServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var request types.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg, ok := validateCredentials(request.Credentials); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result := s.odooClient.Authenticate(r.Context(), request.Credentials)
	if !result.Success {
		writeError(w, statusOrDefault(result.Status), result.Error)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"authenticatedUser": result.UID,
	})
}

// handleSales validates the credential fields plus optional pagination, then
// relays the fetch result verbatim.
func (s *RelayServer) handleSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var request types.SalesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg, ok := validateCredentials(request.Credentials); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	limit := 100
	if request.Limit != nil {
		limit = *request.Limit
	}
	offset := 0
	if request.Offset != nil {
		offset = *request.Offset
	}

	result := s.odooClient.FetchSalesOrders(r.Context(), request.Credentials, limit, offset)
	if !result.Success {
		writeError(w, statusOrDefault(result.Status), result.Error)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// healthCheck provides a static liveness payload with no ERP dependency.
func (s *RelayServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *RelayServer) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
}

// validateCredentials checks all four required fields are present and
// non-empty, naming every missing field in the message.
func validateCredentials(creds types.Credentials) (string, bool) {
	var missing []string
	if strings.TrimSpace(creds.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(creds.Database) == "" {
		missing = append(missing, "dbName")
	}
	if strings.TrimSpace(creds.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(creds.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")), false
	}
	return "", true
}

func statusOrDefault(status int) int {
	if status == 0 {
		return http.StatusInternalServerError
	}
	return status
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
