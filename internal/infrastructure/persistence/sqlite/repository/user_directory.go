package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"auditflow/internal/errs"
	"auditflow/internal/infrastructure/persistence/sqlite/model"
	"auditflow/internal/ports"
)

// UserDirectory backs both the read-only identity collaborator and the user
// admin surface with the users table.
type UserDirectory struct {
	db *gorm.DB
}

var (
	_ ports.IdentityDirectory = (*UserDirectory)(nil)
	_ ports.UserAdmin         = (*UserDirectory)(nil)
)

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) GetUser(ctx context.Context, userID string) (ports.UserInfo, error) {
	if ctx == nil {
		return ports.UserInfo{}, errors.New("context is required")
	}

	var row model.User
	if err := d.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserInfo{}, ports.ErrUserNotFound
		}
		return ports.UserInfo{}, errs.Wrap(err, "query user")
	}
	return mapUser(row), nil
}

func (d *UserDirectory) ListUsers(ctx context.Context) ([]ports.UserInfo, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	var rows []model.User
	if err := d.db.WithContext(ctx).Order("user_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query users")
	}

	items := make([]ports.UserInfo, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapUser(row))
	}
	return items, nil
}

func (d *UserDirectory) CreateUser(ctx context.Context, user ports.UserInfo) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	userID := strings.TrimSpace(user.ID)
	if userID == "" {
		return errors.New("user id is required")
	}
	username := strings.TrimSpace(user.Username)
	if username == "" {
		return errors.New("username is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	row := model.User{
		UserID:    userID,
		Username:  username,
		Active:    user.Active,
		CanAudit:  user.CanAudit,
		Protected: user.Protected,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert user")
	}
	return nil
}

func (d *UserDirectory) SetUserActive(ctx context.Context, userID string, active bool) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	user, err := d.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !active && user.Protected {
		return ports.ErrProtectedUser
	}

	if err := d.db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", user.ID).
		Updates(map[string]any{
			"active":     active,
			"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
		}).Error; err != nil {
		return errs.Wrap(err, "update user active flag")
	}
	return nil
}

func mapUser(row model.User) ports.UserInfo {
	return ports.UserInfo{
		ID:        row.UserID,
		Username:  row.Username,
		Active:    row.Active,
		CanAudit:  row.CanAudit,
		Protected: row.Protected,
	}
}
