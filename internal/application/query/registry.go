// Package query declares the fields clients may filter and sort claim lists by.
package query

import "strings"

// Kind is the value type of a registered field
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindDecimal
	KindStatus
)

// Field maps an external query key to its storage locations
type Field struct {
	// Key is the external name used in query strings and JSON
	Key string
	// Column is a SQL expression over the claims table
	Column string
	// Document is the key inside a stored claim document
	Document string
	Kind     Kind
}

func jsonPath(name string) string {
	return "json_extract(document, '$." + name + "')"
}

func text(key string) Field {
	return Field{Key: key, Column: jsonPath(key), Document: key, Kind: KindText}
}

func decimal(key string) Field {
	return Field{Key: key, Column: jsonPath(key), Document: key, Kind: KindDecimal}
}

var fields = []Field{
	{Key: "id", Column: "sequential_id", Document: "sequentialId", Kind: KindInt},
	{Key: "createdByUserId", Column: "owner_user_id", Document: "createdByUserId", Kind: KindInt},
	{Key: "paymentStatus", Column: "status", Document: "paymentStatus", Kind: KindStatus},
	{Key: "createdAt", Column: "created_at", Document: "createdAt", Kind: KindText},
	text("requester"),
	text("department"),
	text("requestDate"),
	text("projectCode"),
	text("transactionType"),
	text("transactionObject"),
	text("transactionDate"),
	text("content"),
	text("description"),
	decimal("amountBeforeTax"),
	decimal("taxRate"),
	decimal("totalAmount"),
	text("paymentMethod"),
	text("bank"),
	text("accountNumber"),
	text("voucherType"),
	text("voucherNumber"),
	text("voucherDate"),
	text("rejectionReason"),
	text("note"),
}

var registry = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[strings.ToLower(f.Key)] = f
	}
	return m
}()

// searchKeys are matched by the global search text
var searchKeys = []string{"content", "requester", "voucherNumber", "description", "projectCode"}

// DefaultSortField is used when no sort is requested
var DefaultSortField = registry["id"]

// Lookup finds a field by its external key, ignoring case
func Lookup(key string) (Field, bool) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(key))]
	return f, ok
}

// SearchFields returns the fields covered by global search
func SearchFields() []Field {
	out := make([]Field, 0, len(searchKeys))
	for _, k := range searchKeys {
		out = append(out, registry[strings.ToLower(k)])
	}
	return out
}

// Fields returns every registered field in declaration order
func Fields() []Field {
	return append([]Field(nil), fields...)
}
