/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains the SQL for the `pay_later_applications` table, including the
 * SELECT ... FOR UPDATE row lock that serializes concurrent credit check jobs
 * for the same application.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/paylater-service/internal/domain"
)

var (
	ErrApplicationNotFound  = errors.New("pay later application not found")
	ErrDuplicateApplication = errors.New("a pay later application already exists for this user")
	ErrDuplicateNationalID  = errors.New("an application with this national id number already exists")
)

// Unique constraint names on pay_later_applications.
const (
	constraintUniqueUser       = "pay_later_applications_user_id_key"
	constraintUniqueNationalID = "pay_later_applications_national_id_number_key"
)

const applicationColumns = `
	id, user_id, status, full_name, national_id_number, date_of_birth, address,
	phone_number, employment_status, monthly_income, credit_score,
	crc_decision_data, approved_credit_limit, is_eligible, eligibility_reason,
	created_at, updated_at
`

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateApplication inserts a new application row. Uniqueness of both the user
// and the national id number is enforced by database constraints, so duplicate
// submissions racing each other still resolve to exactly one row.
func (r *PostgresRepository) CreateApplication(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO pay_later_applications (
			id, user_id, status, full_name, national_id_number, date_of_birth,
			address, phone_number, employment_status, monthly_income, is_eligible
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		app.ID,
		app.UserID,
		string(app.Status),
		app.FullName,
		app.NationalIDNumber,
		app.DateOfBirth,
		app.Address,
		app.PhoneNumber,
		app.EmploymentStatus,
		app.MonthlyIncome,
		app.IsEligible,
	).Scan(&app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintUniqueUser) {
			return ErrDuplicateApplication
		}
		if isUniqueViolation(err, constraintUniqueNationalID) {
			return ErrDuplicateNationalID
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// FindApplicationByUserID retrieves a user's application.
func (r *PostgresRepository) FindApplicationByUserID(ctx context.Context, userID uuid.UUID) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM pay_later_applications WHERE user_id = $1`
	return r.scanApplication(r.db.QueryRow(ctx, query, userID))
}

// FindApprovedApplicationByUserID retrieves the user's application only when it
// reached APPROVED_ELIGIBLE. The order gate is read-only, so no lock is taken;
// read-committed visibility of the latest decision is sufficient.
func (r *PostgresRepository) FindApprovedApplicationByUserID(ctx context.Context, userID uuid.UUID) (*domain.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM pay_later_applications
		WHERE user_id = $1 AND status = $2 AND is_eligible = TRUE
	`
	return r.scanApplication(r.db.QueryRow(ctx, query, userID, string(domain.StatusApprovedEligible)))
}

// FindStuckApplications lists applications sitting in PENDING_CRC_CHECK for
// longer than olderThan. Used by the operational sweep, never by the workflow.
func (r *PostgresRepository) FindStuckApplications(ctx context.Context, olderThan time.Duration) ([]domain.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM pay_later_applications
		WHERE status = $1 AND updated_at < NOW() - ($2 * INTERVAL '1 second')
		ORDER BY updated_at
	`
	rows, err := r.db.Query(ctx, query, string(domain.StatusPendingCRCCheck), int(olderThan.Seconds()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		app, err := r.scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// WithApplicationForUpdate locks the application row for the duration of fn.
// The deferred rollback guarantees the lock is released on every exit path,
// including panics inside fn; it is a no-op after a successful commit.
func (r *PostgresRepository) WithApplicationForUpdate(ctx context.Context, applicationID uuid.UUID, fn func(ctx context.Context, app *domain.Application, tx ApplicationTx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin application transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + applicationColumns + ` FROM pay_later_applications WHERE id = $1 FOR UPDATE`
	app, err := r.scanApplication(tx.QueryRow(ctx, query, applicationID))
	if err != nil {
		return err
	}

	if err := fn(ctx, app, &pgApplicationTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// pgApplicationTx performs mutations inside the transaction holding the row lock.
type pgApplicationTx struct {
	tx pgx.Tx
}

func (t *pgApplicationTx) UpdateStatus(ctx context.Context, applicationID uuid.UUID, status domain.Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE pay_later_applications SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), applicationID,
	)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// ApplyDecision writes the terminal status together with every decision field
// in one statement. is_eligible and approved_credit_limit come pre-normalized
// from the evaluator, so the iff-invariant with APPROVED_ELIGIBLE holds at the
// database boundary too.
func (t *pgApplicationTx) ApplyDecision(ctx context.Context, applicationID uuid.UUID, decision domain.Decision) error {
	status := domain.StatusForDecision(decision)
	tag, err := t.tx.Exec(ctx, `
		UPDATE pay_later_applications
		SET status = $1,
			is_eligible = $2,
			credit_score = $3,
			crc_decision_data = $4,
			approved_credit_limit = $5,
			eligibility_reason = $6,
			updated_at = NOW()
		WHERE id = $7
	`,
		string(status),
		decision.IsEligible,
		decision.CreditScore,
		[]byte(decision.RawDecision),
		decision.ApprovedCreditLimit,
		decision.EligibilityReason,
		applicationID,
	)
	if err != nil {
		return fmt.Errorf("apply credit decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanApplication(row rowScanner) (*domain.Application, error) {
	var app domain.Application
	var status string
	err := row.Scan(
		&app.ID,
		&app.UserID,
		&status,
		&app.FullName,
		&app.NationalIDNumber,
		&app.DateOfBirth,
		&app.Address,
		&app.PhoneNumber,
		&app.EmploymentStatus,
		&app.MonthlyIncome,
		&app.CreditScore,
		&app.CRCDecisionData,
		&app.ApprovedCreditLimit,
		&app.IsEligible,
		&app.EligibilityReason,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	app.Status = domain.Status(status)
	return &app, nil
}

// isUniqueViolation reports whether err is a Postgres unique violation on the
// named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
