package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	userConstraint := &pgconn.PgError{Code: "23505", ConstraintName: constraintUniqueUser}
	nationalIDConstraint := &pgconn.PgError{Code: "23505", ConstraintName: constraintUniqueNationalID}
	otherConstraint := &pgconn.PgError{Code: "23505", ConstraintName: "some_other_key"}
	notNullViolation := &pgconn.PgError{Code: "23502", ConstraintName: constraintUniqueUser}

	if !isUniqueViolation(userConstraint, constraintUniqueUser) {
		t.Error("expected user uniqueness violation to match")
	}
	if !isUniqueViolation(nationalIDConstraint, constraintUniqueNationalID) {
		t.Error("expected national id uniqueness violation to match")
	}
	if isUniqueViolation(userConstraint, constraintUniqueNationalID) {
		t.Error("user constraint must not match the national id constraint")
	}
	if isUniqueViolation(otherConstraint, constraintUniqueUser) {
		t.Error("unrelated constraints must not match")
	}
	if isUniqueViolation(notNullViolation, constraintUniqueUser) {
		t.Error("non-unique-violation codes must not match")
	}
	if isUniqueViolation(errors.New("connection reset"), constraintUniqueUser) {
		t.Error("plain errors must not match")
	}
}

func TestIsUniqueViolation_Wrapped(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: constraintUniqueUser}
	wrapped := fmt.Errorf("insert application: %w", pgErr)
	if !isUniqueViolation(wrapped, constraintUniqueUser) {
		t.Error("expected wrapped pg errors to be unwrapped via errors.As")
	}
}
