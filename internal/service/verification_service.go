package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookline/internal/domain"
	"bookline/internal/repository"
)

// VerificationService issues and consumes single-use verification tokens.
type VerificationService struct {
	tokens   repository.TokenRepository
	logger   *zap.Logger
	tokenTTL time.Duration
	now      func() time.Time
	newToken func() string
}

func NewVerificationService(tokens repository.TokenRepository, logger *zap.Logger) (*VerificationService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &VerificationService{
		tokens:   tokens,
		logger:   logger,
		tokenTTL: domain.DefaultTokenTTL,
		now:      time.Now,
		newToken: uuid.NewString,
	}, nil
}

// IssueToken creates a fresh single-use token for a subject.
func (s *VerificationService) IssueToken(ctx context.Context, subjectID string, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now().UTC()
	token := &domain.VerificationToken{
		Token:     s.newToken(),
		SubjectID: subjectID,
		Purpose:   purpose,
		Status:    domain.TokenIssued,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := token.Validate(); err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConsumeToken marks a token consumed. The transition is conditional on the
// token still being ISSUED and unexpired, so under concurrent submissions of
// the same token exactly one caller succeeds; the rest get the token's
// current state back with ErrConflict.
func (s *VerificationService) ConsumeToken(ctx context.Context, tokenValue string) (*domain.VerificationToken, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now().UTC()
	err := s.tokens.Consume(ctx, tokenValue, now)
	if errors.Is(err, domain.ErrConflict) {
		current, getErr := s.tokens.GetByToken(ctx, tokenValue)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == domain.TokenIssued && !now.Before(current.ExpiresAt) {
			return current, fmt.Errorf("%w: token expired", domain.ErrConflict)
		}
		return current, fmt.Errorf("%w: token already %s", domain.ErrConflict, current.Status)
	}
	if err != nil {
		return nil, err
	}

	return s.tokens.GetByToken(ctx, tokenValue)
}
