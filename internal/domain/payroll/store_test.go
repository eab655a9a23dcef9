package payroll

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestActiveConflict(t *testing.T) {
	lost := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: activeIndex})
	if err := activeConflict(lost); !errors.Is(err, ErrSettingsConflict) {
		t.Fatalf("expected ErrSettingsConflict, got %v", err)
	}

	other := &pgconn.PgError{Code: "23505", ConstraintName: "payroll_settings_pkey"}
	if err := activeConflict(other); errors.Is(err, ErrSettingsConflict) {
		t.Fatal("expected other unique violations to pass through")
	}
	plain := errors.New("connection reset")
	if err := activeConflict(plain); err != plain {
		t.Fatalf("expected the original error, got %v", err)
	}
}
