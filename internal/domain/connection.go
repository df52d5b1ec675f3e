package domain

import (
	"fmt"
	"strings"
	"time"
)

// ConnectionStatus represents the state of a provider-organization connection.
type ConnectionStatus string

const (
	ConnectionAccepted  ConnectionStatus = "ACCEPTED"
	ConnectionSuspended ConnectionStatus = "SUSPENDED"
)

func (s ConnectionStatus) String() string { return string(s) }

func (s ConnectionStatus) IsValid() bool {
	return s == ConnectionAccepted || s == ConnectionSuspended
}

func ParseConnectionStatusFromString(s string) (ConnectionStatus, error) {
	st := ConnectionStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid connection status %q", ErrValidation, s)
	}
	return st, nil
}

// Connection is the durable relationship between an organization and a
// provider, created exactly once when an invitation is accepted. InvitationID
// is an identifier-only back-reference: it is resolved by lookup and never
// traversed for ownership, since a connection may outlive its invitation row.
type Connection struct {
	ID             string           `gorm:"type:uuid;primaryKey"`
	OrganizationID string           `gorm:"type:uuid;not null"`
	ProviderID     string           `gorm:"type:uuid;not null"`
	Status         ConnectionStatus `gorm:"type:varchar(20);not null"`
	InvitationID   string           `gorm:"type:uuid;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Connection) Validate() error {
	if strings.TrimSpace(c.OrganizationID) == "" {
		return fmt.Errorf("%w: organization id is required", ErrValidation)
	}
	if strings.TrimSpace(c.ProviderID) == "" {
		return fmt.Errorf("%w: provider id is required", ErrValidation)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: invalid connection status %q", ErrValidation, c.Status)
	}
	return nil
}
