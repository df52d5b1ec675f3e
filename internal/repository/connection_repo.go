package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookline/internal/domain"
)

type ConnectionRepository interface {
	Create(ctx context.Context, c *domain.Connection) error
	GetByID(ctx context.Context, id string) (*domain.Connection, error)
	GetByPair(ctx context.Context, organizationID, providerID string) (*domain.Connection, error)
	GetByInvitationID(ctx context.Context, invitationID string) (*domain.Connection, error)
	// UpdateStatus is a compare-and-set on the connection status.
	UpdateStatus(ctx context.Context, id string, expected, next domain.ConnectionStatus) error
	// Reattach links an existing pair connection to a newly accepted
	// invitation, reactivating it if suspended.
	Reattach(ctx context.Context, id, invitationID string) error
}

type GormConnectionRepo struct {
	db *gorm.DB
}

func NewGormConnectionRepo(db *gorm.DB) *GormConnectionRepo {
	return &GormConnectionRepo{db: db}
}

func (r *GormConnectionRepo) Create(ctx context.Context, c *domain.Connection) error {
	model := connectionModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if c != nil {
		*c = *connectionModelToDomain(model)
	}
	return nil
}

func (r *GormConnectionRepo) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	var model ConnectionModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return connectionModelToDomain(&model), nil
}

func (r *GormConnectionRepo) GetByPair(ctx context.Context, organizationID, providerID string) (*domain.Connection, error) {
	var model ConnectionModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND provider_id = ?", organizationID, providerID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return connectionModelToDomain(&model), nil
}

func (r *GormConnectionRepo) GetByInvitationID(ctx context.Context, invitationID string) (*domain.Connection, error) {
	var model ConnectionModel
	err := r.db.WithContext(ctx).
		Where("invitation_id = ?", invitationID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return connectionModelToDomain(&model), nil
}

func (r *GormConnectionRepo) Reattach(ctx context.Context, id, invitationID string) error {
	result := r.db.WithContext(ctx).
		Model(&ConnectionModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.ConnectionAccepted,
			"invitation_id": invitationID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormConnectionRepo) UpdateStatus(ctx context.Context, id string, expected, next domain.ConnectionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&ConnectionModel{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&ConnectionModel{}).
			Where("id = ?", id).
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
