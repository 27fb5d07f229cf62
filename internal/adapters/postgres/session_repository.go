package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/domain"
	"github.com/splitcrew/splitcrew/internal/ports"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	rec := sessionModel{
		UserID:    params.UserID,
		IPAddress: nullableString(params.IPAddress),
		UserAgent: params.UserAgent,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Session{}, persistenceError("create session", err)
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	var rec sessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, persistenceError("get session", err)
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	if res.Error != nil {
		return persistenceError("revoke session", res.Error)
	}
	if res.RowsAffected == 0 {
		// Already revoked or unknown: logout stays idempotent either way.
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&sessionModel{}).
			Where("session_id = ?", sessionID).
			Count(&exists).Error; err != nil {
			return persistenceError("check session", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}
