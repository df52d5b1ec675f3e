package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bookline/internal/domain"
	"bookline/internal/observability"
	"bookline/internal/repository"
)

const (
	defaultExpirySweepInterval = 5 * time.Minute
	defaultExpirySweepLimit    = 100
)

// ExpirySweeper periodically resolves overdue pending invitations to EXPIRED
// and retires stale verification tokens. Each expiry goes through the state
// machine, so a provider responding concurrently wins or loses the same
// compare-and-set as everyone else.
type ExpirySweeper struct {
	invitations repository.InvitationRepository
	tokens      repository.TokenRepository
	connection  *ConnectionService
	alerter     observability.Alerter
	metrics     *observability.Metrics
	logger      *zap.Logger
	interval    time.Duration
	limit       int
	now         func() time.Time
}

func NewExpirySweeper(
	invitations repository.InvitationRepository,
	tokens repository.TokenRepository,
	connection *ConnectionService,
	alerter observability.Alerter,
	metrics *observability.Metrics,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*ExpirySweeper, error) {
	if invitations == nil {
		return nil, fmt.Errorf("invitation repository is required")
	}
	if connection == nil {
		return nil, fmt.Errorf("connection service is required")
	}
	if interval <= 0 {
		interval = defaultExpirySweepInterval
	}
	if limit <= 0 {
		limit = defaultExpirySweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ExpirySweeper{
		invitations: invitations,
		tokens:      tokens,
		connection:  connection,
		alerter:     alerter,
		metrics:     metrics,
		logger:      logger,
		interval:    interval,
		limit:       limit,
		now:         time.Now,
	}, nil
}

func (s *ExpirySweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("expiry sweeper initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("expiry sweeper sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) error {
	if err := s.sweepInvitations(ctx); err != nil {
		return err
	}
	return s.sweepTokens(ctx)
}

func (s *ExpirySweeper) sweepInvitations(ctx context.Context) error {
	overdue, err := s.invitations.ListExpiredPending(ctx, s.now().UTC(), s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch overdue invitations: %w", err)
	}

	expired := 0
	for i := range overdue {
		invitation, err := s.connection.ExpireInvitation(ctx, overdue[i].ID)
		if err != nil {
			s.logger.Error("failed to expire invitation",
				zap.String("invitationId", overdue[i].ID),
				zap.Error(err),
			)
			continue
		}
		// A concurrent response may have resolved it first; only count real expiries.
		if invitation.Status == domain.InvitationExpired {
			expired++
			if s.metrics != nil {
				s.metrics.IncInvitationExpired()
			}
		}
	}

	if expired > 0 && s.alerter != nil {
		s.alerter.InvitationsExpired(expired)
	}
	return nil
}

func (s *ExpirySweeper) sweepTokens(ctx context.Context) error {
	if s.tokens == nil {
		return nil
	}

	count, err := s.tokens.ExpireStale(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to expire stale tokens: %w", err)
	}
	if count > 0 {
		s.logger.Info("expired stale verification tokens", zap.Int64("count", count))
	}
	return nil
}
