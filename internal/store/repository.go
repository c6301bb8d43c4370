/**
 * @description
 * This file defines the `Repository` interface, the contract for all data access
 * operations required by the paylater-service. The interface decouples the
 * application's business logic from the PostgreSQL implementation, which keeps
 * the workflow testable against in-memory fakes.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/paylater-service/internal/domain"
)

// ApplicationTx exposes the mutations permitted while an application row is held
// under the exclusive lock taken by WithApplicationForUpdate. Both writes happen
// inside the same transaction and become visible only on commit.
type ApplicationTx interface {
	// UpdateStatus persists a status change for the locked application.
	UpdateStatus(ctx context.Context, applicationID uuid.UUID, status domain.Status) error
	// ApplyDecision writes the terminal status and every decision field in a
	// single statement, so a reader never observes a half-written decision.
	ApplyDecision(ctx context.Context, applicationID uuid.UUID, decision domain.Decision) error
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// CreateApplication persists a new application. It fails with
	// ErrDuplicateApplication when the user already has one, and with
	// ErrDuplicateNationalID when the national id number collides.
	CreateApplication(ctx context.Context, app *domain.Application) error

	// FindApplicationByUserID returns the user's application or ErrApplicationNotFound.
	FindApplicationByUserID(ctx context.Context, userID uuid.UUID) (*domain.Application, error)

	// FindApprovedApplicationByUserID is the narrow read consumed by the order
	// eligibility gate: it returns the application only when it is terminal
	// approved, and ErrApplicationNotFound otherwise.
	FindApprovedApplicationByUserID(ctx context.Context, userID uuid.UUID) (*domain.Application, error)

	// FindStuckApplications lists applications that have sat in
	// PENDING_CRC_CHECK for longer than olderThan.
	FindStuckApplications(ctx context.Context, olderThan time.Duration) ([]domain.Application, error)

	// WithApplicationForUpdate acquires an exclusive row-level lock on the
	// application for the duration of fn, serializing concurrent check jobs for
	// the same id. The transaction commits when fn returns nil and rolls back on
	// every other exit path, including panics inside fn. The locked row's
	// current state is passed to fn, so fn can observe a terminal status set by
	// a competing job and exit as a no-op.
	WithApplicationForUpdate(ctx context.Context, applicationID uuid.UUID, fn func(ctx context.Context, app *domain.Application, tx ApplicationTx) error) error
}
