package domain

import (
	"fmt"
	"strings"
	"time"
)

// TokenStatus represents the state of a single-use verification token.
type TokenStatus string

const (
	TokenIssued   TokenStatus = "ISSUED"
	TokenConsumed TokenStatus = "CONSUMED"
	TokenExpired  TokenStatus = "EXPIRED"
)

func (s TokenStatus) String() string { return string(s) }

func (s TokenStatus) IsValid() bool {
	switch s {
	case TokenIssued, TokenConsumed, TokenExpired:
		return true
	}
	return false
}

// TokenPurpose scopes what consuming a token verifies.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "EMAIL_VERIFICATION"
	PurposePhoneVerification TokenPurpose = "PHONE_VERIFICATION"
)

func (p TokenPurpose) IsValid() bool {
	return p == PurposeEmailVerification || p == PurposePhoneVerification
}

// DefaultTokenTTL is how long an issued token stays consumable.
const DefaultTokenTTL = 48 * time.Hour

// VerificationToken is a single-use token. Consumption is a conditional
// transition keyed by the token value: under concurrent callers exactly one
// consume succeeds and the rest observe the already-consumed state.
type VerificationToken struct {
	Token      string       `gorm:"type:varchar(64);primaryKey"`
	SubjectID  string       `gorm:"type:uuid;not null"`
	Purpose    TokenPurpose `gorm:"type:varchar(30);not null"`
	Status     TokenStatus  `gorm:"type:varchar(20);not null"`
	ExpiresAt  time.Time    `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func (t *VerificationToken) Validate() error {
	if strings.TrimSpace(t.Token) == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	if strings.TrimSpace(t.SubjectID) == "" {
		return fmt.Errorf("%w: subject id is required", ErrValidation)
	}
	if !t.Purpose.IsValid() {
		return fmt.Errorf("%w: invalid token purpose %q", ErrValidation, t.Purpose)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: invalid token status %q", ErrValidation, t.Status)
	}
	return nil
}
