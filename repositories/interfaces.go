package repositories

import (
	"context"
	"errors"

	"github.com/appshivam/restauth/models"
)

var (
	// ErrNotFound is returned when no record matches a lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint would be violated
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// CredentialStore looks up an account and its password hash by its unique identifier (email).
// Implementations return ErrNotFound when no account matches.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}

// UserRepository handles user data operations
type UserRepository interface {
	CredentialStore

	// Create creates a new user, returning ErrDuplicate when the email is taken
	Create(ctx context.Context, user *models.User) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	TxManager TransactionManager
}
