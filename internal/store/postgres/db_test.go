package postgres

import (
	"strings"
	"testing"
)

func TestEmbeddedSchemaCarriesBothTables(t *testing.T) {
	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE TABLE IF NOT EXISTS fulfillments",
		"order_id       TEXT        NOT NULL UNIQUE",
	} {
		if !strings.Contains(schema, stmt) {
			t.Fatalf("schema is missing %q", stmt)
		}
	}
}
