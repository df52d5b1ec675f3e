package domain

import (
	"fmt"
	"strings"
	"time"
)

// PartyKind distinguishes the two directory-managed recipient kinds. Guests
// are not parties; their contact details travel inside booking events.
type PartyKind string

const (
	PartyProvider     PartyKind = "PROVIDER"
	PartyOrganization PartyKind = "ORGANIZATION"
)

func (k PartyKind) IsValid() bool {
	return k == PartyProvider || k == PartyOrganization
}

// Party holds the contact details the dispatcher resolves recipients against.
// Phone is optional; a missing phone suppresses WhatsApp tasks for the party.
type Party struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Kind      PartyKind `gorm:"type:varchar(20);not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);not null"`
	Phone     *string   `gorm:"type:varchar(32)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Party) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("%w: invalid party kind %q", ErrValidation, p.Kind)
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	return nil
}
