package models

import (
	"net/mail"
	"strings"
	"time"

	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

// Role enumerates what a user may do within their tenant.
type Role string

const (
	// RoleAdmin manages users and tenant settings.
	RoleAdmin Role = "admin"
	// RoleLawyer drafts, redlines, and advances workflow.
	RoleLawyer Role = "lawyer"
	// RoleReviewer reads documents and decides redline hunks.
	RoleReviewer Role = "reviewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLawyer, RoleReviewer:
		return true
	}
	return false
}

// User belongs to exactly one tenant. Email is unique per tenant, not
// globally, so the same lawyer can hold accounts at two firms.
type User struct {
	ID           id.UserID   `json:"id"`
	TenantID     id.TenantID `json:"tenant_id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         Role        `json:"role"`
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewUser validates and constructs a user. The caller supplies the already
// hashed password.
func NewUser(userID id.UserID, tenantID id.TenantID, email, name string, role Role, passwordHash []byte, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if len(passwordHash) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password hash is required")
	}
	return &User{
		ID:           userID,
		TenantID:     tenantID,
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}
