package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsReferenceConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"reference code taken", &pq.Error{Code: uniqueViolation, Constraint: "bookings_reference_code_key"}, true},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: uniqueViolation, Constraint: "bookings_reference_code_key"}), true},
		{"other unique constraint", &pq.Error{Code: uniqueViolation, Constraint: "bookings_pkey"}, false},
		{"check violation", &pq.Error{Code: "23514", Constraint: "bookings_dates_check"}, false},
		{"not a postgres error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isReferenceConflict(tt.err))
		})
	}
}
