package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

// Credentials accepted by the mock instance.
const (
	TestDatabase = "db1"
	TestUsername = "user@x.com"
	TestPassword = "pw"
	TestUID      = 5
)

// MockOdoo is an httptest server speaking both Odoo RPC dialects: JSON-RPC
// on /jsonrpc and XML-RPC on /xmlrpc/2/common and /xmlrpc/2/object. The
// Fail* switches force individual paths to fail so fallback behavior is
// testable; call counters let tests assert how many remote calls happened.
type MockOdoo struct {
	Server *httptest.Server

	// FailJSONRPC makes /jsonrpc answer HTTP 500 for every call.
	FailJSONRPC bool
	// JSONInvalidCredentials makes JSON-RPC authenticate report a false uid
	// even for valid credentials, while XML-RPC still accepts them.
	JSONInvalidCredentials bool
	// FailXMLRPC makes both XML-RPC endpoints answer a fault.
	FailXMLRPC bool
	// FailXMLCount makes only the XML-RPC search_count call fault.
	FailXMLCount bool

	// Orders is the raw sale.order dataset, keyed order as returned.
	Orders []types.Record

	mu            sync.Mutex
	jsonCalls     int
	xmlCalls      int
	xmlReadCalls  int
	lastSearchIDs []int
}

// NewMockOdoo creates a mock Odoo instance with a three-order dataset.
func NewMockOdoo(t *testing.T) *MockOdoo {
	t.Helper()

	mock := &MockOdoo{Orders: DefaultSalesOrders()}
	mux := http.NewServeMux()
	mux.HandleFunc("/jsonrpc", mock.handleJSONRPC)
	mux.HandleFunc("/xmlrpc/2/common", mock.handleXMLCommon)
	mux.HandleFunc("/xmlrpc/2/object", mock.handleXMLObject)
	mock.Server = httptest.NewServer(mux)
	t.Cleanup(mock.Server.Close)

	return mock
}

// URL returns the mock instance base URL.
func (m *MockOdoo) URL() string {
	return m.Server.URL
}

// Credentials returns a credential tuple the mock accepts.
func (m *MockOdoo) Credentials() types.Credentials {
	return types.Credentials{
		URL:      m.Server.URL,
		Database: TestDatabase,
		Username: TestUsername,
		Password: TestPassword,
	}
}

// RemoteCalls reports the total number of RPC calls received on any dialect.
func (m *MockOdoo) RemoteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jsonCalls + m.xmlCalls
}

// XMLReadCalls reports how many XML-RPC read calls were received.
func (m *MockOdoo) XMLReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.xmlReadCalls
}

// DefaultSalesOrders returns the canned sale.order dataset: one fully
// populated order, one with every optional field absent (Odoo sends false),
// and one with a zero total that must be derived from untaxed + tax.
func DefaultSalesOrders() []types.Record {
	return []types.Record{
		{
			"id":               float64(1),
			"name":             "S00001",
			"partner_id":       []interface{}{float64(7), "Acme Co"},
			"date_order":       "2024-03-01 10:00:00",
			"amount_total":     float64(250),
			"amount_untaxed":   float64(200),
			"amount_tax":       float64(50),
			"currency_id":      []interface{}{float64(12), "USD"},
			"state":            "sale",
			"user_id":          []interface{}{float64(3), "Alice Carbon"},
			"team_id":          []interface{}{float64(2), "EU Sales"},
			"client_order_ref": "PO-0017",
			"note":             "rush delivery",
			"order_line":       []interface{}{float64(11), float64(12), float64(13)},
		},
		{
			"id":               float64(2),
			"name":             "S00002",
			"partner_id":       false,
			"date_order":       "2024-03-02 09:30:00",
			"amount_total":     float64(0),
			"amount_untaxed":   float64(120),
			"amount_tax":       float64(18),
			"currency_id":      false,
			"state":            "draft",
			"user_id":          false,
			"team_id":          false,
			"client_order_ref": false,
			"note":             false,
			"order_line":       false,
		},
		{
			"id":               float64(3),
			"name":             "S00003",
			"partner_id":       []interface{}{float64(9), "Globex"},
			"date_order":       "2024-03-03 15:45:00",
			"amount_total":     float64(99.5),
			"amount_untaxed":   float64(90),
			"amount_tax":       float64(9.5),
			"currency_id":      []interface{}{float64(1), "INR"},
			"state":            "cancel",
			"user_id":          []interface{}{float64(3), "Alice Carbon"},
			"team_id":          []interface{}{float64(4), "Website"},
			"client_order_ref": "",
			"note":             "",
			"order_line":       []interface{}{float64(21)},
		},
	}
}

// --- JSON-RPC side ---

type jsonRPCEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  struct {
		Service string        `json:"service"`
		Method  string        `json:"method"`
		Args    []interface{} `json:"args"`
	} `json:"params"`
	ID int64 `json:"id"`
}

func (m *MockOdoo) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.jsonCalls++
	m.mu.Unlock()

	if m.FailJSONRPC {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var envelope jsonRPCEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var result interface{}
	switch {
	case envelope.Params.Service == "common" && envelope.Params.Method == "authenticate":
		result = m.jsonAuthenticate(envelope.Params.Args)
	case envelope.Params.Service == "object" && envelope.Params.Method == "execute_kw":
		result = m.jsonExecuteKw(envelope.Params.Args)
	default:
		result = false
	}

	writeJSON(w, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      envelope.ID,
		"result":  result,
	})
}

func (m *MockOdoo) jsonAuthenticate(args []interface{}) interface{} {
	if m.JSONInvalidCredentials {
		return false
	}
	if m.validCredentials(args) {
		return TestUID
	}
	return false
}

func (m *MockOdoo) validCredentials(args []interface{}) bool {
	if len(args) < 3 {
		return false
	}
	db, _ := args[0].(string)
	user, _ := args[1].(string)
	password, _ := args[2].(string)
	return db == TestDatabase && user == TestUsername && password == TestPassword
}

func (m *MockOdoo) jsonExecuteKw(args []interface{}) interface{} {
	if len(args) < 6 {
		return false
	}
	method, _ := args[4].(string)

	switch method {
	case "search_count":
		return len(m.Orders)
	case "search_read":
		limit, offset := len(m.Orders), 0
		if len(args) >= 7 {
			if kwargs, ok := args[6].(map[string]interface{}); ok {
				if v, ok := kwargs["limit"].(float64); ok {
					limit = int(v)
				}
				if v, ok := kwargs["offset"].(float64); ok {
					offset = int(v)
				}
			}
		}
		return m.page(limit, offset)
	default:
		return false
	}
}

func (m *MockOdoo) page(limit, offset int) []types.Record {
	if offset >= len(m.Orders) {
		return []types.Record{}
	}
	end := offset + limit
	if end > len(m.Orders) {
		end = len(m.Orders)
	}
	return m.Orders[offset:end]
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// --- XML-RPC side ---

var xmlLimitRe = regexp.MustCompile(`<name>limit</name><value><(?:int|i4)>(\d+)</(?:int|i4)>`)
var xmlOffsetRe = regexp.MustCompile(`<name>offset</name><value><(?:int|i4)>(\d+)</(?:int|i4)>`)

func (m *MockOdoo) handleXMLCommon(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.xmlCalls++
	m.mu.Unlock()

	body := readBody(r)
	if m.FailXMLRPC {
		writeXML(w, xmlFault("mock failure"))
		return
	}

	if strings.Contains(body, "<methodName>authenticate</methodName>") &&
		strings.Contains(body, xmlString(TestDatabase)) &&
		strings.Contains(body, xmlString(TestUsername)) &&
		strings.Contains(body, xmlString(TestPassword)) {
		writeXML(w, xmlResponse(xmlInt(TestUID)))
		return
	}
	writeXML(w, xmlResponse("<boolean>0</boolean>"))
}

func (m *MockOdoo) handleXMLObject(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.xmlCalls++
	m.mu.Unlock()

	body := readBody(r)
	if m.FailXMLRPC {
		writeXML(w, xmlFault("mock failure"))
		return
	}

	switch {
	case strings.Contains(body, xmlString("search_count")):
		if m.FailXMLCount {
			writeXML(w, xmlFault("count unavailable"))
			return
		}
		writeXML(w, xmlResponse(xmlInt(len(m.Orders))))

	case strings.Contains(body, xmlString("search")):
		limit, offset := len(m.Orders), 0
		if match := xmlLimitRe.FindStringSubmatch(body); match != nil {
			limit, _ = strconv.Atoi(match[1])
		}
		if match := xmlOffsetRe.FindStringSubmatch(body); match != nil {
			offset, _ = strconv.Atoi(match[1])
		}
		page := m.page(limit, offset)
		ids := make([]int, 0, len(page))
		values := make([]string, 0, len(page))
		for _, record := range page {
			id := int(record["id"].(float64))
			ids = append(ids, id)
			values = append(values, xmlInt(id))
		}
		m.mu.Lock()
		m.lastSearchIDs = ids
		m.mu.Unlock()
		writeXML(w, xmlResponse(xmlArray(values)))

	case strings.Contains(body, xmlString("read")):
		m.mu.Lock()
		m.xmlReadCalls++
		ids := m.lastSearchIDs
		m.mu.Unlock()
		values := make([]string, 0, len(ids))
		for _, id := range ids {
			for _, record := range m.Orders {
				if int(record["id"].(float64)) == id {
					values = append(values, xmlValue(map[string]interface{}(record)))
				}
			}
		}
		writeXML(w, xmlResponse(xmlArray(values)))

	default:
		writeXML(w, xmlFault(fmt.Sprintf("unexpected call: %s", body)))
	}
}

func readBody(r *http.Request) string {
	data, _ := io.ReadAll(r.Body)
	return string(data)
}

func writeXML(w http.ResponseWriter, payload string) {
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(payload))
}

func xmlResponse(value string) string {
	return `<?xml version="1.0"?><methodResponse><params><param><value>` +
		value + `</value></param></params></methodResponse>`
}

func xmlFault(message string) string {
	return `<?xml version="1.0"?><methodResponse><fault><value><struct>` +
		`<member><name>faultCode</name><value><int>1</int></value></member>` +
		`<member><name>faultString</name><value>` + xmlString(message) + `</value></member>` +
		`</struct></value></fault></methodResponse>`
}

func xmlInt(n int) string {
	return fmt.Sprintf("<int>%d</int>", n)
}

func xmlString(s string) string {
	return "<string>" + xmlEscape(s) + "</string>"
}

func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func xmlArray(values []string) string {
	var b strings.Builder
	b.WriteString("<array><data>")
	for _, v := range values {
		b.WriteString("<value>")
		b.WriteString(v)
		b.WriteString("</value>")
	}
	b.WriteString("</data></array>")
	return b.String()
}

// xmlValue renders a fixture value as XML-RPC, covering the types the canned
// dataset uses. Struct members are emitted in sorted key order so responses
// are deterministic.
func xmlValue(v interface{}) string {
	switch value := v.(type) {
	case bool:
		if value {
			return "<boolean>1</boolean>"
		}
		return "<boolean>0</boolean>"
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("<double>%d</double>", int64(value))
		}
		return fmt.Sprintf("<double>%g</double>", value)
	case int:
		return xmlInt(value)
	case string:
		return xmlString(value)
	case []interface{}:
		values := make([]string, 0, len(value))
		for _, item := range value {
			values = append(values, xmlValue(item))
		}
		return xmlArray(values)
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("<struct>")
		for _, k := range keys {
			b.WriteString("<member><name>")
			b.WriteString(xmlEscape(k))
			b.WriteString("</name><value>")
			b.WriteString(xmlValue(value[k]))
			b.WriteString("</value></member>")
		}
		b.WriteString("</struct>")
		return b.String()
	default:
		return xmlString(fmt.Sprintf("%v", value))
	}
}
