// Package service orchestrates user accounts and login sessions.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lexdraft/internal/audit"
	authmetrics "lexdraft/internal/auth/metrics"
	"lexdraft/internal/auth/models"
	"lexdraft/internal/auth/store/session"
	"lexdraft/internal/auth/store/user"
	"lexdraft/internal/platform/middleware"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

// TenantGate blocks operations for suspended tenants.
type TenantGate interface {
	RequireActive(ctx context.Context, tenantID id.TenantID) error
}

// Service orchestrates registration, login, logout, and token validation.
// It implements middleware.TokenValidator: a token is accepted only while
// its backing session is still alive, so logout revokes immediately.
type Service struct {
	users      user.Store
	sessions   session.Store
	tokens     *TokenManager
	tenants    TenantGate
	auditor    *audit.Publisher
	metrics    *authmetrics.Metrics
	sessionTTL time.Duration
	runner     tx.Runner
}

func New(users user.Store, sessions session.Store, tokens *TokenManager, tenants TenantGate, auditor *audit.Publisher, metrics *authmetrics.Metrics, sessionTTL time.Duration, runner tx.Runner) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		tenants:    tenants,
		auditor:    auditor,
		metrics:    metrics,
		sessionTTL: sessionTTL,
		runner:     runner,
	}
}

// Register creates a user in the tenant. Email is unique per tenant.
func (s *Service) Register(ctx context.Context, tenantID id.TenantID, email, name, password string, role models.Role) (*models.User, error) {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	newUser, err := models.NewUser(id.NewUserID(), tenantID, email, name, role, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		if err := s.users.CreateIfEmailAvailable(ctx, newUser); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "email is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenantID,
			ActorID:  newUser.ID,
			Action:   audit.ActionUserRegistered,
			Subject:  newUser.ID.String(),
			Detail:   newUser.Email,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementUsersRegistered()
	return newUser, nil
}

// LoginResult is a freshly issued session and its bearer token.
type LoginResult struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password produce the same error so the endpoint does not leak which
// accounts exist.
func (s *Service) Login(ctx context.Context, tenantID id.TenantID, email, password string) (*LoginResult, error) {
	if err := s.tenants.RequireActive(ctx, tenantID); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.users.FindByEmail(ctx, tenantID, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.IncrementLogins("rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)) != nil {
		s.metrics.IncrementLogins("rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:        id.NewSessionID(),
		UserID:    account.ID,
		TenantID:  account.TenantID,
		Role:      account.Role,
		CreatedAt: now,
		ExpiresAt: expiresIn(now, s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		TenantID: account.TenantID,
		ActorID:  account.ID,
		Action:   audit.ActionUserLoggedIn,
		Subject:  account.ID.String(),
	}); err != nil {
		return nil, err
	}

	s.metrics.IncrementLogins("accepted")
	return &LoginResult{Token: token, User: account, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout deletes the session. The token stops validating immediately even
// though its signature remains valid until expiry.
func (s *Service) Logout(ctx context.Context) error {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	return s.auditor.Emit(ctx, audit.Event{
		TenantID: requestcontext.TenantID(ctx),
		Action:   audit.ActionUserLoggedOut,
		Subject:  requestcontext.UserID(ctx).String(),
	})
}

// GetUser loads a user scoped to the tenant.
func (s *Service) GetUser(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*models.User, error) {
	account, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if account.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return account, nil
}

// ValidateToken implements middleware.TokenValidator. The signature check is
// necessary but not sufficient: the session must still exist in the store.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Find(ctx, parsed.SessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errors.New("session revoked or expired")
		}
		return nil, err
	}
	return &middleware.TokenClaims{
		UserID:    parsed.UserID,
		TenantID:  parsed.TenantID,
		SessionID: parsed.SessionID,
		Role:      parsed.Role,
	}, nil
}
