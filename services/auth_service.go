package services

import (
	"context"
	"errors"
	"time"

	"github.com/appshivam/restauth/internal/observability"
	"github.com/appshivam/restauth/models"
	"github.com/appshivam/restauth/repositories"
	"github.com/appshivam/restauth/tokens"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLookupTimeout bounds a credential store lookup when none is configured
const DefaultLookupTimeout = 5 * time.Second

// TokenIssuer signs tokens for authenticated principals
type TokenIssuer interface {
	Issue(user *models.User, now time.Time) (*tokens.IssuedToken, error)
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      *models.User
}

// AuthOption configures an AuthService
type AuthOption func(*AuthService)

// WithLookupTimeout bounds each credential store lookup
func WithLookupTimeout(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// AuthService verifies credentials, issues tokens and registers accounts
type AuthService struct {
	users         repositories.UserRepository
	txManager     repositories.TransactionManager
	hasher        PasswordHasher
	issuer        TokenIssuer
	lookupTimeout time.Duration
	dummyHash     string
	now           func() time.Time
	logger        *zap.Logger
}

// NewAuthService creates a new AuthService. It hashes a throwaway secret up
// front so failed lookups can be made to cost the same as wrong passwords.
func NewAuthService(
	users repositories.UserRepository,
	txManager repositories.TransactionManager,
	hasher PasswordHasher,
	issuer TokenIssuer,
	logger *zap.Logger,
	opts ...AuthOption,
) (*AuthService, error) {
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, WrapConfiguration("failed to prepare password hasher", err)
	}

	s := &AuthService{
		users:         users,
		txManager:     txManager,
		hasher:        hasher,
		issuer:        issuer,
		lookupTimeout: DefaultLookupTimeout,
		dummyHash:     dummyHash,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate resolves identifier and checks secret against its stored hash.
// Unknown identifiers and wrong secrets both return ErrAuthFailed.
func (s *AuthService) Authenticate(ctx context.Context, identifier, secret string) (*models.User, error) {
	identifier = models.NormalizeEmail(identifier)

	user, err := s.lookup(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		if _, verr := s.verify(ctx, secret, s.dummyHash); verr != nil {
			return nil, verr
		}
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, WrapInternal("credential lookup failed", err)
	}

	ok, err := s.verify(ctx, secret, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthFailed
	}

	return user, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*models.User, error) {
	if identifier == "" {
		return nil, repositories.ErrNotFound
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	return s.users.FindByIdentifier(lookupCtx, identifier)
}

// verify runs the hash comparison off the request goroutine so a cancelled
// request returns immediately. The channel is buffered so the worker never blocks.
func (s *AuthService) verify(ctx context.Context, plain, hash string) (bool, error) {
	result := make(chan bool, 1)
	go func() {
		result <- s.hasher.Verify(plain, hash)
	}()

	select {
	case ok := <-result:
		return ok, nil
	case <-ctx.Done():
		return false, WrapInternal("authentication aborted", ctx.Err())
	}
}

// Login authenticates and issues a bearer token
func (s *AuthService) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, identifier, secret)
	if err != nil {
		if IsUnauthorizedError(err) {
			observability.LoginAttemptsTotal.WithLabelValues(observability.OutcomeFailure).Inc()
			s.logger.Warn("login rejected", zap.String("identifier", models.NormalizeEmail(identifier)))
		} else {
			observability.LoginAttemptsTotal.WithLabelValues(observability.OutcomeError).Inc()
			s.logger.Error("login failed", zap.Error(err))
		}
		return nil, err
	}

	issued, err := s.issuer.Issue(user, s.now())
	if err != nil {
		observability.LoginAttemptsTotal.WithLabelValues(observability.OutcomeError).Inc()
		s.logger.Error("failed to issue token", zap.Error(err))
		return nil, WrapInternal("failed to issue token", err)
	}

	observability.LoginAttemptsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	s.logger.Info("login succeeded",
		zap.String("user_id", user.ID.String()),
		zap.String("token_id", issued.TokenID),
		zap.Time("expires_at", issued.ExpiresAt),
	)

	return &LoginResult{
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresAt: issued.ExpiresAt,
		User:      user,
	}, nil
}

// Register creates an account. Roles default to USER.
func (s *AuthService) Register(ctx context.Context, email, password string, roles []string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput.WithDetail("email", "required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, ErrInvalidInput.WithDetail("password", err.Error())
	}

	user := models.NewUser(email, hash, roles)

	err = s.txManager.InTransaction(ctx, func(ctx context.Context, tx repositories.Transaction) error {
		_, err := s.users.FindByIdentifier(ctx, email)
		switch {
		case err == nil:
			return ErrDuplicateEmail
		case !errors.Is(err, repositories.ErrNotFound):
			return WrapInternal("failed to check existing user", err)
		}

		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrDuplicateEmail
			}
			return WrapInternal("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		if !IsConflictError(err) {
			s.logger.Error("registration failed", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.Strings("roles", user.Roles),
	)
	return user, nil
}

// Profile returns the stored account for an authenticated subject
func (s *AuthService) Profile(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.lookup(ctx, models.NormalizeEmail(subject))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, WrapInternal("failed to load profile", err)
	}
	return user, nil
}
