package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Smoke-test client for the relay: checks /health, then runs the connect and
// sales flows against a live Odoo instance using credentials from flags or
// the environment.

type relayClient struct {
	serverURL string
	client    *http.Client
}

func main() {
	_ = godotenv.Load()

	var (
		serverURL = flag.String("server", "http://localhost:5000", "Relay server URL")
		odooURL   = flag.String("odoo-url", os.Getenv("ODOO_URL"), "Odoo instance URL")
		database  = flag.String("db", os.Getenv("ODOO_DB"), "Odoo database name")
		username  = flag.String("user", os.Getenv("ODOO_USERNAME"), "Odoo username")
		password  = flag.String("password", os.Getenv("ODOO_PASSWORD"), "Odoo password")
		limit     = flag.Int("limit", 10, "Sales order page size")
		offset    = flag.Int("offset", 0, "Sales order page offset")
	)

	flag.Parse()

	client := &relayClient{
		serverURL: *serverURL,
		client:    &http.Client{Timeout: 60 * time.Second},
	}

	fmt.Println("Netzero Odoo Relay Smoke Client")
	fmt.Println("===============================")

	if err := client.checkHealth(); err != nil {
		fmt.Printf("health check failed: %v\n", err)
		os.Exit(1)
	}

	if *odooURL == "" || *database == "" || *username == "" || *password == "" {
		fmt.Println("No Odoo credentials supplied; stopping after health check.")
		fmt.Println("Set -odoo-url, -db, -user and -password (or the ODOO_* env vars) to test the full flow.")
		return
	}

	credentials := map[string]interface{}{
		"url":      *odooURL,
		"dbName":   *database,
		"username": *username,
		"password": *password,
	}

	if err := client.connect(credentials); err != nil {
		fmt.Printf("connect failed: %v\n", err)
		os.Exit(1)
	}

	if err := client.sales(credentials, *limit, *offset); err != nil {
		fmt.Printf("sales fetch failed: %v\n", err)
		os.Exit(1)
	}
}

func (c *relayClient) checkHealth() error {
	resp, err := c.client.Get(c.serverURL + "/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("GET /health -> %d %s\n", resp.StatusCode, bytes.TrimSpace(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *relayClient) connect(credentials map[string]interface{}) error {
	return c.post("/api/odoo/connect", credentials)
}

func (c *relayClient) sales(credentials map[string]interface{}, limit, offset int) error {
	body := map[string]interface{}{"limit": limit, "offset": offset}
	for k, v := range credentials {
		body[k] = v
	}
	return c.post("/api/odoo/sales", body)
}

func (c *relayClient) post(path string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := c.client.Post(c.serverURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("POST %s -> %d\n%s\n", path, resp.StatusCode, bytes.TrimSpace(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
