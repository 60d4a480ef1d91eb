package db

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm sentinel", err: gorm.ErrDuplicatedKey, want: true},
		{name: "postgres", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_donations_external_reference" (SQLSTATE 23505)`), want: true},
		{name: "mysql", err: errors.New("Error 1062 (23000): Duplicate entry 'cs_1' for key 'donations.idx_donations_external_reference'"), want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: donations.external_reference"), want: true},
		{name: "other", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKeyErr(tt.err); got != tt.want {
				t.Fatalf("IsDuplicateKeyErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
