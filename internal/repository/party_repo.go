package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookline/internal/domain"
)

// PartyRepository is the recipient directory the dispatcher resolves provider
// and organization contact details against.
type PartyRepository interface {
	Create(ctx context.Context, p *domain.Party) error
	GetByID(ctx context.Context, id string) (*domain.Party, error)
}

type GormPartyRepo struct {
	db *gorm.DB
}

func NewGormPartyRepo(db *gorm.DB) *GormPartyRepo {
	return &GormPartyRepo{db: db}
}

func (r *GormPartyRepo) Create(ctx context.Context, p *domain.Party) error {
	model := partyModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if p != nil {
		*p = *partyModelToDomain(model)
	}
	return nil
}

func (r *GormPartyRepo) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	var model PartyModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return partyModelToDomain(&model), nil
}
