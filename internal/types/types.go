package types

// RelayError represents a failure while talking to the Odoo instance.
// StatusCode carries the HTTP status the relay should answer with.
type RelayError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func (e *RelayError) Error() string {
	return e.Message
}

// Record represents a raw Odoo record as returned by either RPC dialect.
// Relation fields arrive as a two-element [id, label] pair or a bare falsy
// value; numeric fields arrive as float64 (JSON-RPC) or int64 (XML-RPC).
type Record map[string]interface{}

// Credentials identifies one Odoo instance plus a login. Constructed per
// request from the HTTP body and discarded after use; never persisted.
type Credentials struct {
	URL      string `json:"url"`
	Database string `json:"dbName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SalesOrder is the normalized projection of an Odoo sale.order record.
// Every field has a defined default so a partially populated remote record
// never fails normalization.
type SalesOrder struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Customer    string  `json:"customer"`
	CustomerID  *int    `json:"customerId"`
	Date        string  `json:"date"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
	State       string  `json:"state"`
	Salesperson string  `json:"salesperson"`
	Team        string  `json:"team"`
	Reference   string  `json:"reference"`
	Note        string  `json:"note"`
	LineCount   int     `json:"lineCount"`
}

// AuthResult is the outcome of an authentication attempt. Failures are
// reported here rather than as errors so nothing escapes the client boundary.
type AuthResult struct {
	Success bool   `json:"success"`
	UID     int    `json:"uid,omitempty"`
	Error   string `json:"error,omitempty"`
	// Status is the suggested HTTP status for a failed result.
	Status int `json:"-"`
}

// FetchResult is the outcome of a sales-order fetch. Count is the remote's
// total matching-record count and may exceed len(Data) under pagination.
type FetchResult struct {
	Success bool         `json:"success"`
	Data    []SalesOrder `json:"data"`
	Count   int          `json:"count"`
	Error   string       `json:"error,omitempty"`
	Status  int          `json:"-"`
}

// ConnectRequest is the body of POST /api/odoo/connect.
type ConnectRequest struct {
	Credentials
}

// SalesRequest is the body of POST /api/odoo/sales. Limit and Offset are
// optional and default to 100/0.
type SalesRequest struct {
	Credentials
	Limit  *int `json:"limit,omitempty"`
	Offset *int `json:"offset,omitempty"`
}
