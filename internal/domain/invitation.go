package domain

import (
	"fmt"
	"strings"
	"time"
)

// InvitationStatus represents the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

func (s InvitationStatus) String() string { return string(s) }

func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRejected, InvitationExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s InvitationStatus) IsTerminal() bool {
	switch s {
	case InvitationAccepted, InvitationRejected, InvitationExpired:
		return true
	}
	return false
}

func ParseInvitationStatusFromString(s string) (InvitationStatus, error) {
	st := InvitationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid invitation status %q", ErrValidation, s)
	}
	return st, nil
}

// InvitationAction is the provider's single response action on a pending invitation.
type InvitationAction string

const (
	InvitationActionAccept InvitationAction = "ACCEPT"
	InvitationActionReject InvitationAction = "REJECT"
)

func (a InvitationAction) IsValid() bool {
	return a == InvitationActionAccept || a == InvitationActionReject
}

func ParseInvitationActionFromString(s string) (InvitationAction, error) {
	a := InvitationAction(strings.ToUpper(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", fmt.Errorf("%w: invalid invitation action %q", ErrValidation, s)
	}
	return a, nil
}

// DefaultInvitationTTL is how long a pending invitation stays acceptable.
const DefaultInvitationTTL = 14 * 24 * time.Hour

// Invitation is an organization's proposal for a provider to join its network.
// It is mutated only by the provider's single response action or by the expiry
// sweep, and is immutable once resolved.
type Invitation struct {
	ID              string           `gorm:"type:uuid;primaryKey"`
	OrganizationID  string           `gorm:"type:uuid;not null"`
	ProviderID      string           `gorm:"type:uuid;not null"`
	Status          InvitationStatus `gorm:"type:varchar(20);not null"`
	RejectionReason *string          `gorm:"type:text"`
	ExpiresAt       time.Time        `gorm:"not null"`
	RespondedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (i *Invitation) Validate() error {
	if strings.TrimSpace(i.OrganizationID) == "" {
		return fmt.Errorf("%w: organization id is required", ErrValidation)
	}
	if strings.TrimSpace(i.ProviderID) == "" {
		return fmt.Errorf("%w: provider id is required", ErrValidation)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("%w: invalid invitation status %q", ErrValidation, i.Status)
	}
	if i.Status == InvitationRejected && (i.RejectionReason == nil || strings.TrimSpace(*i.RejectionReason) == "") {
		return fmt.Errorf("%w: rejection reason is required for rejected invitations", ErrValidation)
	}
	return nil
}

// IsAcceptable reports whether the invitation can still be responded to at the
// given instant. A pending invitation past its deadline is refused even if the
// expiry sweep has not visited it yet.
func (i *Invitation) IsAcceptable(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}
