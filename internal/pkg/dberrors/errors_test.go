package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	rollErr := &pgconn.PgError{Code: "23505", ConstraintName: StudentsRollNoKey}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "matching constraint", err: rollErr, constraint: StudentsRollNoKey, want: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", rollErr), constraint: StudentsRollNoKey, want: true},
		{name: "other constraint", err: rollErr, constraint: StudentsStudentIDKey, want: false},
		{name: "not unique violation", err: &pgconn.PgError{Code: "23503", ConstraintName: StudentsRollNoKey}, constraint: StudentsRollNoKey, want: false},
		{name: "plain error", err: errors.New("boom"), constraint: StudentsRollNoKey, want: false},
		{name: "nil", err: nil, constraint: StudentsRollNoKey, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateConstraintError(tt.err, tt.constraint))
		})
	}
}

func TestConstraintName(t *testing.T) {
	assert.Equal(t, FeeStructuresYearClass, ConstraintName(&pgconn.PgError{Code: "23505", ConstraintName: FeeStructuresYearClass}))
	assert.Equal(t, "", ConstraintName(errors.New("x")))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "22001"}))
}
