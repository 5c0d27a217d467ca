package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lexdraft/internal/audit"
	"lexdraft/internal/auth/models"
	"lexdraft/internal/auth/store/session"
	"lexdraft/internal/auth/store/user"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

type activeGate struct{ suspended bool }

func (g activeGate) RequireActive(context.Context, id.TenantID) error {
	if g.suspended {
		return dErrors.New(dErrors.CodeForbidden, "tenant is suspended")
	}
	return nil
}

func newTestService(t *testing.T, gate TenantGate) (*Service, *audit.MemoryStore) {
	t.Helper()
	auditStore := audit.NewMemoryStore()
	return New(
		user.NewMemoryStore(),
		session.NewMemoryStore(),
		NewTokenManager([]byte("test-signing-key")),
		gate,
		audit.NewPublisher(auditStore),
		nil,
		time.Hour,
		nil,
	), auditStore
}

func TestRegisterAndLogin(t *testing.T) {
	svc, auditStore := newTestService(t, activeGate{})
	ctx := context.Background()
	tenantID := id.NewTenantID()

	account, err := svc.Register(ctx, tenantID, "Ada@Firm.example", "Ada", "s3cret-pass", models.RoleLawyer)
	require.NoError(t, err)
	require.Equal(t, "ada@firm.example", account.Email)
	require.NotEmpty(t, account.PasswordHash)

	result, err := svc.Login(ctx, tenantID, "ADA@firm.example", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, account.ID, result.User.ID)

	actions := make([]string, 0, 2)
	for _, event := range auditStore.Events() {
		actions = append(actions, event.Action)
	}
	require.Contains(t, actions, audit.ActionUserRegistered)
	require.Contains(t, actions, audit.ActionUserLoggedIn)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, activeGate{})
	ctx := context.Background()
	tenantID := id.NewTenantID()

	_, err := svc.Register(ctx, tenantID, "ada@firm.example", "Ada", "s3cret-pass", models.RoleLawyer)
	require.NoError(t, err)

	_, err = svc.Register(ctx, tenantID, "ADA@firm.example", "Other Ada", "s3cret-pass", models.RoleReviewer)
	if !dErrors.HasCode(err, dErrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Same email in a different tenant is fine.
	_, err = svc.Register(ctx, id.NewTenantID(), "ada@firm.example", "Ada", "s3cret-pass", models.RoleLawyer)
	require.NoError(t, err)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService(t, activeGate{})

	_, err := svc.Register(context.Background(), id.NewTenantID(), "ada@firm.example", "Ada", "short", models.RoleLawyer)
	if !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _ := newTestService(t, activeGate{})
	ctx := context.Background()
	tenantID := id.NewTenantID()

	_, err := svc.Register(ctx, tenantID, "ada@firm.example", "Ada", "s3cret-pass", models.RoleLawyer)
	require.NoError(t, err)

	_, wrongPass := svc.Login(ctx, tenantID, "ada@firm.example", "wrong-pass")
	_, unknown := svc.Login(ctx, tenantID, "nobody@firm.example", "s3cret-pass")

	if !dErrors.HasCode(wrongPass, dErrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", wrongPass)
	}
	if !dErrors.HasCode(unknown, dErrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", unknown)
	}
	require.Equal(t, dErrors.MessageOf(wrongPass), dErrors.MessageOf(unknown))
}

func TestLoginBlockedForSuspendedTenant(t *testing.T) {
	svc, _ := newTestService(t, activeGate{suspended: true})

	_, err := svc.Login(context.Background(), id.NewTenantID(), "ada@firm.example", "s3cret-pass")
	if !dErrors.HasCode(err, dErrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestValidateTokenRequiresLiveSession(t *testing.T) {
	sessions := session.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	svc := New(
		user.NewMemoryStore(),
		sessions,
		NewTokenManager([]byte("test-signing-key")),
		activeGate{},
		audit.NewPublisher(auditStore),
		nil,
		time.Hour,
		nil,
	)
	ctx := context.Background()
	tenantID := id.NewTenantID()

	_, err := svc.Register(ctx, tenantID, "ada@firm.example", "Ada", "s3cret-pass", models.RoleLawyer)
	require.NoError(t, err)
	result, err := svc.Login(ctx, tenantID, "ada@firm.example", "s3cret-pass")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, result.Token)
	require.NoError(t, err)
	require.Equal(t, tenantID, claims.TenantID)

	// Revoking the session invalidates the still-signed token.
	require.NoError(t, sessions.Delete(ctx, claims.SessionID))
	_, err = svc.ValidateToken(ctx, result.Token)
	require.Error(t, err)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestService(t, activeGate{})
	other := NewTokenManager([]byte("another-key"))

	sess := &models.Session{
		ID:        id.NewSessionID(),
		UserID:    id.NewUserID(),
		TenantID:  id.NewTenantID(),
		Role:      models.RoleLawyer,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	forged, err := other.Issue(sess)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), forged)
	require.Error(t, err)
}
