// Package memory provides in-process repository implementations for tests and
// local development. Nothing is persisted across restarts.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/appshivam/restauth/models"
	"github.com/appshivam/restauth/repositories"
)

// UserRepository is a map-backed repositories.UserRepository safe for concurrent use
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
}

// NewUserRepository creates an empty repository, optionally seeded with users.
// It panics if two seeds share an email.
func NewUserRepository(seed ...*models.User) *UserRepository {
	r := &UserRepository{
		byEmail: make(map[string]*models.User),
	}
	for _, u := range seed {
		if err := r.Create(context.Background(), u); err != nil {
			panic(fmt.Sprintf("memory: cannot seed %q: %v", u.Email, err))
		}
	}
	return r
}

// Create stores a copy of user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := models.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return repositories.ErrDuplicate
	}
	stored := clone(user)
	stored.Email = email
	r.byEmail[email] = stored
	return nil
}

// FindByIdentifier retrieves a user by email
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[models.NormalizeEmail(identifier)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(u), nil
}

// callers never share the stored pointer or its roles slice
func clone(u *models.User) *models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

// TransactionManager runs functions without transactional guarantees.
// It lets services written against repositories.TransactionManager use the memory store.
type TransactionManager struct{}

// Begin returns a transaction whose Commit and Rollback do nothing
func (TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return noopTx{ctx: ctx}, nil
}

// InTransaction calls fn directly
func (tm TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, _ := tm.Begin(ctx)
	return fn(ctx, tx)
}

type noopTx struct{ ctx context.Context }

func (noopTx) Commit() error              { return nil }
func (noopTx) Rollback() error            { return nil }
func (t noopTx) Context() context.Context { return t.ctx }
