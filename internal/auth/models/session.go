package models

import (
	"time"

	id "lexdraft/pkg/domain"
)

// Session tracks a logged-in user. Sessions live in Redis with a TTL; a JWT
// is only honored while its session is still alive, which makes logout an
// immediate revocation rather than a client-side fiction.
type Session struct {
	ID        id.SessionID `json:"id"`
	UserID    id.UserID    `json:"user_id"`
	TenantID  id.TenantID  `json:"tenant_id"`
	Role      Role         `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}
