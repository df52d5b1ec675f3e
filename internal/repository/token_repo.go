package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bookline/internal/domain"
)

type TokenRepository interface {
	Create(ctx context.Context, t *domain.VerificationToken) error
	GetByToken(ctx context.Context, token string) (*domain.VerificationToken, error)
	// Consume is a compare-and-set ISSUED -> CONSUMED keyed by the token
	// value. Exactly one concurrent caller wins; losers get ErrConflict.
	Consume(ctx context.Context, token string, consumedAt time.Time) error
	ExpireStale(ctx context.Context, asOf time.Time) (int64, error)
}

type GormTokenRepo struct {
	db *gorm.DB
}

func NewGormTokenRepo(db *gorm.DB) *GormTokenRepo {
	return &GormTokenRepo{db: db}
}

func (r *GormTokenRepo) Create(ctx context.Context, t *domain.VerificationToken) error {
	model := tokenModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if t != nil {
		*t = *tokenModelToDomain(model)
	}
	return nil
}

func (r *GormTokenRepo) GetByToken(ctx context.Context, token string) (*domain.VerificationToken, error) {
	var model TokenModel
	err := r.db.WithContext(ctx).First(&model, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tokenModelToDomain(&model), nil
}

func (r *GormTokenRepo) Consume(ctx context.Context, token string, consumedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&TokenModel{}).
		Where("token = ? AND status = ? AND expires_at > ?", token, domain.TokenIssued, consumedAt).
		Updates(map[string]any{
			"status":      domain.TokenConsumed,
			"consumed_at": consumedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&TokenModel{}).
			Where("token = ?", token).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTokenRepo) ExpireStale(ctx context.Context, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&TokenModel{}).
		Where("status = ? AND expires_at <= ?", domain.TokenIssued, asOf).
		Update("status", domain.TokenExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
