package odoo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

func TestNormalizeSalesOrderRelations(t *testing.T) {
	tests := []struct {
		name         string
		partner      interface{}
		wantCustomer string
		wantID       *int
	}{
		{
			name:         "relation pair",
			partner:      []interface{}{float64(7), "Acme Co"},
			wantCustomer: "Acme Co",
			wantID:       intPtr(7),
		},
		{
			name:         "absent relation",
			partner:      nil,
			wantCustomer: "N/A",
			wantID:       nil,
		},
		{
			name:         "false relation",
			partner:      false,
			wantCustomer: "N/A",
			wantID:       nil,
		},
		{
			name:         "xmlrpc integer id",
			partner:      []interface{}{int64(9), "Globex"},
			wantCustomer: "Globex",
			wantID:       intPtr(9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := normalizeSalesOrder(types.Record{"partner_id": tt.partner})
			assert.Equal(t, tt.wantCustomer, order.Customer)
			assert.Equal(t, tt.wantID, order.CustomerID)
		})
	}
}

func TestNormalizeSalesOrderTotal(t *testing.T) {
	tests := []struct {
		name   string
		record types.Record
		want   float64
	}{
		{
			name:   "nonzero total wins over components",
			record: types.Record{"amount_total": float64(250), "amount_untaxed": float64(120), "amount_tax": float64(18)},
			want:   250,
		},
		{
			name:   "zero total recomputed from untaxed plus tax",
			record: types.Record{"amount_total": float64(0), "amount_untaxed": float64(120), "amount_tax": float64(18)},
			want:   138,
		},
		{
			name:   "missing total recomputed",
			record: types.Record{"amount_untaxed": float64(90), "amount_tax": float64(9.5)},
			want:   99.5,
		},
		{
			name:   "non-numeric total recomputed",
			record: types.Record{"amount_total": "garbage", "amount_untaxed": float64(10)},
			want:   10,
		},
		{
			name:   "everything absent defaults to zero",
			record: types.Record{},
			want:   0,
		},
		{
			name:   "non-finite total recomputed",
			record: types.Record{"amount_total": math.NaN(), "amount_untaxed": float64(5), "amount_tax": float64(1)},
			want:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := normalizeSalesOrder(tt.record)
			assert.Equal(t, tt.want, order.Total)
			assert.False(t, math.IsNaN(order.Total))
			assert.False(t, math.IsInf(order.Total, 0))
		})
	}
}

func TestNormalizeSalesOrderCurrency(t *testing.T) {
	assert.Equal(t, "USD", normalizeSalesOrder(types.Record{"currency_id": []interface{}{float64(12), "USD"}}).Currency)
	assert.Equal(t, "INR", normalizeSalesOrder(types.Record{}).Currency)
	assert.Equal(t, "INR", normalizeSalesOrder(types.Record{"currency_id": false}).Currency)
	assert.Equal(t, "INR", normalizeSalesOrder(types.Record{"currency_id": []interface{}{float64(1), ""}}).Currency)
}

func TestNormalizeSalesOrderDefaults(t *testing.T) {
	// A completely empty record must normalize without panicking and with
	// every field at its documented default.
	order := normalizeSalesOrder(types.Record{})

	assert.Equal(t, 0, order.ID)
	assert.Equal(t, "", order.Name)
	assert.Equal(t, "N/A", order.Customer)
	assert.Nil(t, order.CustomerID)
	assert.Equal(t, "", order.Date)
	assert.Equal(t, float64(0), order.Total)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "", order.State)
	assert.Equal(t, "N/A", order.Salesperson)
	assert.Equal(t, "N/A", order.Team)
	assert.Equal(t, "", order.Reference)
	assert.Equal(t, "", order.Note)
	assert.Equal(t, 0, order.LineCount)
}

func TestNormalizeSalesOrderFull(t *testing.T) {
	order := normalizeSalesOrder(types.Record{
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
	})

	assert.Equal(t, types.SalesOrder{
		ID:          1,
		Name:        "S00001",
		Customer:    "Acme Co",
		CustomerID:  intPtr(7),
		Date:        "2024-03-01 10:00:00",
		Total:       250,
		Currency:    "USD",
		State:       "sale",
		Salesperson: "Alice Carbon",
		Team:        "EU Sales",
		Reference:   "PO-0017",
		Note:        "rush delivery",
		LineCount:   3,
	}, order)
}

func TestNormalizeSalesOrderUnknownState(t *testing.T) {
	// Unknown state values pass through untouched.
	order := normalizeSalesOrder(types.Record{"state": "sent"})
	assert.Equal(t, "sent", order.State)
}

func intPtr(n int) *int {
	return &n
}
