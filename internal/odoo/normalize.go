package odoo

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sagar-patil-here/Netzero-new/internal/types"
)

// normalizeSalesOrder flattens a raw sale.order record into the dashboard
// projection. Every field falls back to a defined default, so a partially
// populated record never fails; Total is always a finite number.
func normalizeSalesOrder(record types.Record) types.SalesOrder {
	customer, customerID := relation(record["partner_id"])
	salesperson, _ := relation(record["user_id"])
	team, _ := relation(record["team_id"])

	return types.SalesOrder{
		ID:          asIntDefault(record["id"], 0),
		Name:        asString(record["name"]),
		Customer:    defaultString(customer, "N/A"),
		CustomerID:  customerID,
		Date:        asString(record["date_order"]),
		Total:       orderTotal(record),
		Currency:    currencyCode(record["currency_id"]),
		State:       asString(record["state"]),
		Salesperson: defaultString(salesperson, "N/A"),
		Team:        defaultString(team, "N/A"),
		Reference:   asString(record["client_order_ref"]),
		Note:        asString(record["note"]),
		LineCount:   lineCount(record["order_line"]),
	}
}

// orderTotal prefers the remote amount_total; when that is zero or not a
// finite number it is recomputed as amount_untaxed + amount_tax. A genuinely
// zero-amount order is therefore also recomputed, which matches the upstream
// dashboard behavior and is harmless since its components are zero too.
func orderTotal(record types.Record) float64 {
	if total, ok := asDecimal(record["amount_total"]); ok && !total.IsZero() {
		return total.InexactFloat64()
	}

	untaxed, ok := asDecimal(record["amount_untaxed"])
	if !ok {
		untaxed = decimal.Zero
	}
	tax, ok := asDecimal(record["amount_tax"])
	if !ok {
		tax = decimal.Zero
	}
	return untaxed.Add(tax).InexactFloat64()
}

// relation unwraps an Odoo relation value, which is either a two-element
// [id, label] pair or a bare falsy value.
func relation(value interface{}) (string, *int) {
	pair, ok := value.([]interface{})
	if !ok || len(pair) != 2 {
		return "", nil
	}

	label, _ := pair[1].(string)
	if id, ok := asInt(pair[0]); ok {
		return label, &id
	}
	return label, nil
}

// currencyCode resolves the currency relation label, defaulting to INR when
// the relation is absent or carries no usable label.
func currencyCode(value interface{}) string {
	label, _ := relation(value)
	if label == "" {
		return "INR"
	}
	return label
}

func lineCount(value interface{}) int {
	lines, ok := value.([]interface{})
	if !ok {
		return 0
	}
	return len(lines)
}

// asString returns the string form of a value, treating Odoo's false-for-empty
// convention and anything non-string as empty.
func asString(value interface{}) string {
	s, _ := value.(string)
	return s
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// asInt coerces the numeric encodings of both RPC dialects to an int.
func asInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func asIntDefault(value interface{}, fallback int) int {
	if n, ok := asInt(value); ok {
		return n
	}
	return fallback
}

func asIntSlice(value interface{}) []int {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(items))
	for _, item := range items {
		if id, ok := asInt(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// asDecimal coerces a monetary value to a decimal, rejecting non-finite
// floats and non-numeric values.
func asDecimal(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
