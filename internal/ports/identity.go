package ports

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// ErrProtectedUser: the account carries the protected flag and cannot be
// deactivated or deleted. Data-driven; no username special-casing.
var ErrProtectedUser = errors.New("user account is protected")

type UserInfo struct {
	ID        string
	Username  string
	Active    bool
	CanAudit  bool
	Protected bool
}

// IdentityDirectory is the read-only identity collaborator the assignment
// engine consults for eligibility.
type IdentityDirectory interface {
	GetUser(ctx context.Context, userID string) (UserInfo, error)
	ListUsers(ctx context.Context) ([]UserInfo, error)
}

// UserAdmin manages directory entries. Separate from IdentityDirectory so the
// core's eligibility path stays read-only.
type UserAdmin interface {
	CreateUser(ctx context.Context, user UserInfo) error
	SetUserActive(ctx context.Context, userID string, active bool) error
}
