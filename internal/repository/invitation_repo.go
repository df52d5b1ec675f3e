package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"bookline/internal/domain"
)

type InvitationRepository interface {
	Create(ctx context.Context, i *domain.Invitation) error
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)
	// UpdateStatus is a compare-and-set on the invitation status. It returns
	// domain.ErrConflict when the current status differs from expected and
	// domain.ErrNotFound when the row is missing.
	UpdateStatus(ctx context.Context, id string, expected, next domain.InvitationStatus, respondedAt *time.Time, rejectionReason *string) error
	HasPending(ctx context.Context, organizationID, providerID string) (bool, error)
	ListExpiredPending(ctx context.Context, asOf time.Time, limit int) ([]domain.Invitation, error)
}

type GormInvitationRepo struct {
	db *gorm.DB
}

func NewGormInvitationRepo(db *gorm.DB) *GormInvitationRepo {
	return &GormInvitationRepo{db: db}
}

func (r *GormInvitationRepo) Create(ctx context.Context, i *domain.Invitation) error {
	model := invitationModelFromDomain(i)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if i != nil {
		*i = *invitationModelToDomain(model)
	}
	return nil
}

func (r *GormInvitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	var model InvitationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return invitationModelToDomain(&model), nil
}

func (r *GormInvitationRepo) UpdateStatus(
	ctx context.Context,
	id string,
	expected, next domain.InvitationStatus,
	respondedAt *time.Time,
	rejectionReason *string,
) error {
	updates := map[string]any{
		"status": next,
	}
	if respondedAt != nil {
		updates["responded_at"] = *respondedAt
	}
	if rejectionReason != nil {
		updates["rejection_reason"] = *rejectionReason
	}

	result := r.db.WithContext(ctx).
		Model(&InvitationModel{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing row from a lost race on status.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&InvitationModel{}).
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

func (r *GormInvitationRepo) HasPending(ctx context.Context, organizationID, providerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&InvitationModel{}).
		Where("organization_id = ? AND provider_id = ? AND status = ?", organizationID, providerID, domain.InvitationPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormInvitationRepo) ListExpiredPending(ctx context.Context, asOf time.Time, limit int) ([]domain.Invitation, error) {
	var models []InvitationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", domain.InvitationPending, asOf).
		Order("expires_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	invitations := make([]domain.Invitation, 0, len(models))
	for i := range models {
		invitations = append(invitations, *invitationModelToDomain(&models[i]))
	}

	return invitations, nil
}

// isUniqueViolation matches the postgres unique constraint error without
// binding repository code to the driver error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key")
}
