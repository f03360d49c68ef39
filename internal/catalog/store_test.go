package catalog

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "products_pkey"}
	if !isUniqueViolation(dup) {
		t.Fatal("expected 23505 to be detected")
	}
	if !isUniqueViolation(fmt.Errorf("insert product: %w", dup)) {
		t.Fatal("expected wrapped 23505 to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation must not map to duplicate")
	}
	if isUniqueViolation(fmt.Errorf("connection reset")) {
		t.Fatal("plain error must not map to duplicate")
	}
}
