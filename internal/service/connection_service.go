package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookline/internal/domain"
	"bookline/internal/repository"
)

// EventSink receives the domain event emitted by a successful transition.
// Enqueue is idempotent per correlation key, so at-least-once hand-off is safe.
type EventSink interface {
	Enqueue(ctx context.Context, event domain.Event) error
}

// ConnectionService owns the invitation and connection state machines.
// Transitions on a single entity are serialized by a compare-and-set on its
// current status; there is no broader locking.
type ConnectionService struct {
	invitations   repository.InvitationRepository
	connections   repository.ConnectionRepository
	events        EventSink
	logger        *zap.Logger
	invitationTTL time.Duration
	now           func() time.Time
	newID         func() string
}

func NewConnectionService(
	invitations repository.InvitationRepository,
	connections repository.ConnectionRepository,
	events EventSink,
	logger *zap.Logger,
) (*ConnectionService, error) {
	if invitations == nil {
		return nil, fmt.Errorf("invitation repository is required")
	}
	if connections == nil {
		return nil, fmt.Errorf("connection repository is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConnectionService{
		invitations:   invitations,
		connections:   connections,
		events:        events,
		logger:        logger,
		invitationTTL: domain.DefaultInvitationTTL,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

// CreateInvitation issues a new PENDING invitation from an organization to a
// provider. It conflicts when a pending invitation already exists for the
// pair, or when the pair is already connected.
func (s *ConnectionService) CreateInvitation(ctx context.Context, organizationID, providerID string) (*domain.Invitation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(organizationID) == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(providerID) == "" {
		return nil, fmt.Errorf("%w: provider id is required", domain.ErrValidation)
	}

	existing, err := s.connections.GetByPair(ctx, organizationID, providerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == domain.ConnectionAccepted {
		return nil, fmt.Errorf("%w: organization and provider are already connected", domain.ErrConflict)
	}

	// The race between concurrent creates is still settled by the partial
	// unique index on pending invitations.
	pending, err := s.invitations.HasPending(ctx, organizationID, providerID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: a pending invitation already exists for this pair", domain.ErrConflict)
	}

	now := s.now().UTC()
	invitation := &domain.Invitation{
		ID:             s.newID(),
		OrganizationID: organizationID,
		ProviderID:     providerID,
		Status:         domain.InvitationPending,
		ExpiresAt:      now.Add(s.invitationTTL),
	}
	if err := invitation.Validate(); err != nil {
		return nil, err
	}

	if err := s.invitations.Create(ctx, invitation); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: a pending invitation already exists for this pair", domain.ErrConflict)
		}
		return nil, err
	}

	s.emit(ctx, domain.Event{
		EntityType: domain.EntityInvitation,
		EntityID:   invitation.ID,
		EventType:  domain.EventInvitationCreated,
		ToStatus:   domain.InvitationPending.String(),
		OccurredAt: now,
		Context: map[string]string{
			domain.ContextOrganizationID: organizationID,
			domain.ContextProviderID:     providerID,
		},
	})

	return invitation, nil
}

// RespondToInvitation applies the provider's single response action. The
// transition is a compare-and-set on PENDING, so a double submission loses
// the race cleanly: the second caller gets the resolved invitation back with
// ErrConflict instead of a duplicate side effect. On accept, the connection
// is created in the same logical operation.
func (s *ConnectionService) RespondToInvitation(
	ctx context.Context,
	invitationID string,
	action domain.InvitationAction,
	rejectionReason string,
) (*domain.Invitation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: invalid invitation action %q", domain.ErrValidation, action)
	}
	if action == domain.InvitationActionReject && strings.TrimSpace(rejectionReason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}

	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if invitation.Status.IsTerminal() {
		return invitation, fmt.Errorf("%w: invitation already resolved to %s", domain.ErrConflict, invitation.Status)
	}

	now := s.now().UTC()
	if !invitation.IsAcceptable(now) {
		// Past the deadline the invitation is no longer acceptable even if
		// the sweep has not visited it yet.
		expired, expireErr := s.ExpireInvitation(ctx, invitationID)
		if expireErr != nil {
			return nil, expireErr
		}
		return expired, fmt.Errorf("%w: invitation expired", domain.ErrConflict)
	}

	next := domain.InvitationAccepted
	var reason *string
	if action == domain.InvitationActionReject {
		next = domain.InvitationRejected
		trimmed := strings.TrimSpace(rejectionReason)
		reason = &trimmed
	}

	err = s.invitations.UpdateStatus(ctx, invitationID, domain.InvitationPending, next, &now, reason)
	if errors.Is(err, domain.ErrConflict) {
		current, getErr := s.invitations.GetByID(ctx, invitationID)
		if getErr != nil {
			return nil, getErr
		}
		return current, fmt.Errorf("%w: invitation already resolved to %s", domain.ErrConflict, current.Status)
	}
	if err != nil {
		return nil, err
	}

	invitation.Status = next
	invitation.RespondedAt = &now
	invitation.RejectionReason = reason

	if action == domain.InvitationActionAccept {
		connection, connErr := s.createConnectionForInvitation(ctx, invitation)
		if connErr != nil {
			return nil, connErr
		}

		s.emit(ctx, domain.Event{
			EntityType: domain.EntityInvitation,
			EntityID:   invitation.ID,
			EventType:  domain.EventInvitationAccepted,
			FromStatus: domain.InvitationPending.String(),
			ToStatus:   domain.InvitationAccepted.String(),
			OccurredAt: now,
			Context: map[string]string{
				domain.ContextOrganizationID: invitation.OrganizationID,
				domain.ContextProviderID:     invitation.ProviderID,
				"connectionId":               connection.ID,
			},
		})
		return invitation, nil
	}

	s.emit(ctx, domain.Event{
		EntityType: domain.EntityInvitation,
		EntityID:   invitation.ID,
		EventType:  domain.EventInvitationRejected,
		FromStatus: domain.InvitationPending.String(),
		ToStatus:   domain.InvitationRejected.String(),
		OccurredAt: now,
		Context: map[string]string{
			domain.ContextOrganizationID: invitation.OrganizationID,
			domain.ContextProviderID:     invitation.ProviderID,
			"rejectionReason":            rejectionReason,
		},
	})

	return invitation, nil
}

// ExpireInvitation transitions a stale PENDING invitation to EXPIRED. Calling
// it on an already resolved invitation is a no-op returning the current state.
func (s *ConnectionService) ExpireInvitation(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.Status.IsTerminal() {
		return invitation, nil
	}

	now := s.now().UTC()
	err = s.invitations.UpdateStatus(ctx, invitationID, domain.InvitationPending, domain.InvitationExpired, nil, nil)
	if errors.Is(err, domain.ErrConflict) {
		// Lost the race to a response or another sweep; both are fine.
		return s.invitations.GetByID(ctx, invitationID)
	}
	if err != nil {
		return nil, err
	}

	invitation.Status = domain.InvitationExpired

	s.emit(ctx, domain.Event{
		EntityType: domain.EntityInvitation,
		EntityID:   invitation.ID,
		EventType:  domain.EventInvitationExpired,
		FromStatus: domain.InvitationPending.String(),
		ToStatus:   domain.InvitationExpired.String(),
		OccurredAt: now,
		Context: map[string]string{
			domain.ContextOrganizationID: invitation.OrganizationID,
			domain.ContextProviderID:     invitation.ProviderID,
		},
	})

	return invitation, nil
}

// SuspendConnection transitions ACCEPTED -> SUSPENDED.
func (s *ConnectionService) SuspendConnection(ctx context.Context, connectionID string) (*domain.Connection, error) {
	return s.transitionConnection(ctx, connectionID, domain.ConnectionAccepted, domain.ConnectionSuspended, domain.EventConnectionSuspended)
}

// ReactivateConnection transitions SUSPENDED -> ACCEPTED.
func (s *ConnectionService) ReactivateConnection(ctx context.Context, connectionID string) (*domain.Connection, error) {
	return s.transitionConnection(ctx, connectionID, domain.ConnectionSuspended, domain.ConnectionAccepted, domain.EventConnectionReactivated)
}

// GetConnection returns one connection by id.
func (s *ConnectionService) GetConnection(ctx context.Context, connectionID string) (*domain.Connection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.connections.GetByID(ctx, connectionID)
}

// GetInvitation returns one invitation by id.
func (s *ConnectionService) GetInvitation(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.invitations.GetByID(ctx, invitationID)
}

func (s *ConnectionService) transitionConnection(
	ctx context.Context,
	connectionID string,
	expected, next domain.ConnectionStatus,
	eventType domain.EventType,
) (*domain.Connection, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	err := s.connections.UpdateStatus(ctx, connectionID, expected, next)
	if errors.Is(err, domain.ErrConflict) {
		current, getErr := s.connections.GetByID(ctx, connectionID)
		if getErr != nil {
			return nil, getErr
		}
		return current, fmt.Errorf("%w: connection is %s", domain.ErrConflict, current.Status)
	}
	if err != nil {
		return nil, err
	}

	connection, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.Event{
		EntityType: domain.EntityConnection,
		EntityID:   connection.ID,
		EventType:  eventType,
		FromStatus: expected.String(),
		ToStatus:   next.String(),
		OccurredAt: s.now().UTC(),
		Context: map[string]string{
			domain.ContextOrganizationID: connection.OrganizationID,
			domain.ContextProviderID:     connection.ProviderID,
		},
	})

	return connection, nil
}

func (s *ConnectionService) createConnectionForInvitation(ctx context.Context, invitation *domain.Invitation) (*domain.Connection, error) {
	connection := &domain.Connection{
		ID:             s.newID(),
		OrganizationID: invitation.OrganizationID,
		ProviderID:     invitation.ProviderID,
		Status:         domain.ConnectionAccepted,
		InvitationID:   invitation.ID,
	}

	err := s.connections.Create(ctx, connection)
	if errors.Is(err, domain.ErrConflict) {
		// A row for this pair already exists: either a concurrent accept of
		// this same invitation won the insert, or a suspended connection
		// survives from an earlier invitation.
		existing, getErr := s.connections.GetByInvitationID(ctx, invitation.ID)
		if getErr == nil {
			return existing, nil
		}
		if !errors.Is(getErr, domain.ErrNotFound) {
			return nil, getErr
		}
		return s.reattachPairConnection(ctx, invitation)
	}
	if err != nil {
		return nil, err
	}

	return connection, nil
}

// reattachPairConnection adopts the pair's surviving connection for a newly
// accepted invitation: the row is relinked to the invitation and reactivated
// if it was suspended, so accepting never leaves the invitation terminal
// without a connection.
func (s *ConnectionService) reattachPairConnection(ctx context.Context, invitation *domain.Invitation) (*domain.Connection, error) {
	existing, err := s.connections.GetByPair(ctx, invitation.OrganizationID, invitation.ProviderID)
	if err != nil {
		return nil, err
	}

	if err := s.connections.Reattach(ctx, existing.ID, invitation.ID); err != nil {
		return nil, err
	}

	return s.connections.GetByID(ctx, existing.ID)
}

// emit hands the event to the dispatcher. Notification failures are a
// monitoring concern; they never roll back the transition that triggered them.
func (s *ConnectionService) emit(ctx context.Context, event domain.Event) {
	if err := s.events.Enqueue(ctx, event); err != nil {
		s.logger.Error("failed to enqueue domain event",
			zap.String("entityId", event.EntityID),
			zap.String("eventType", event.EventType.String()),
			zap.Error(err),
		)
	}
}
