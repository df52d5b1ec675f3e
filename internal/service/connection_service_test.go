package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"bookline/internal/domain"
	"bookline/internal/repository"
)

func newConnectionServiceForTest(
	t *testing.T,
	invitations *fakeInvitationRepo,
	connections *fakeConnectionRepo,
	sink *fakeEventSink,
) *ConnectionService {
	t.Helper()

	svc, err := NewConnectionService(invitations, connections, sink, zap.NewNop())
	if err != nil {
		t.Fatalf("NewConnectionService() error = %v", err)
	}
	svc.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	nextID := 0
	svc.newID = func() string {
		nextID++
		return []string{"id-1", "id-2", "id-3"}[nextID-1]
	}
	return svc
}

func TestConnectionServiceCreateInvitation(t *testing.T) {
	t.Parallel()

	var created *domain.Invitation
	invitations := &fakeInvitationRepo{
		createFn: func(ctx context.Context, i *domain.Invitation) error {
			created = i
			return nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, &fakeConnectionRepo{}, sink)

	invitation, err := svc.CreateInvitation(context.Background(), "org-1", "prov-1")
	if err != nil {
		t.Fatalf("CreateInvitation() error = %v", err)
	}

	if created == nil {
		t.Fatal("invitation should be persisted")
	}
	if invitation.Status != domain.InvitationPending {
		t.Fatalf("status = %s, want PENDING", invitation.Status)
	}

	wantExpiry := time.Unix(1_700_000_000, 0).UTC().Add(domain.DefaultInvitationTTL)
	if !invitation.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expiresAt = %v, want %v", invitation.ExpiresAt, wantExpiry)
	}

	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	if sink.events[0].EventType != domain.EventInvitationCreated {
		t.Fatalf("event type = %s, want invitation.created", sink.events[0].EventType)
	}
}

func TestConnectionServiceCreateInvitationValidation(t *testing.T) {
	t.Parallel()

	svc := newConnectionServiceForTest(t, &fakeInvitationRepo{}, &fakeConnectionRepo{}, &fakeEventSink{})

	if _, err := svc.CreateInvitation(context.Background(), "", "prov-1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateInvitation(context.Background(), "org-1", " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestConnectionServiceCreateInvitationDuplicatePending(t *testing.T) {
	t.Parallel()

	invitations := &fakeInvitationRepo{
		createFn: func(ctx context.Context, i *domain.Invitation) error {
			return domain.ErrConflict
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, &fakeConnectionRepo{}, sink)

	_, err := svc.CreateInvitation(context.Background(), "org-1", "prov-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if len(sink.events) != 0 {
		t.Fatal("no event should be emitted for a failed create")
	}
}

func TestConnectionServiceCreateInvitationPendingPreCheck(t *testing.T) {
	t.Parallel()

	invitations := &fakeInvitationRepo{
		hasPendingFn: func(ctx context.Context, organizationID, providerID string) (bool, error) {
			return true, nil
		},
		createFn: func(ctx context.Context, i *domain.Invitation) error {
			t.Fatal("no insert should be attempted when a pending invitation exists")
			return nil
		},
	}

	svc := newConnectionServiceForTest(t, invitations, &fakeConnectionRepo{}, &fakeEventSink{})

	_, err := svc.CreateInvitation(context.Background(), "org-1", "prov-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestConnectionServiceCreateInvitationAlreadyConnected(t *testing.T) {
	t.Parallel()

	connections := &fakeConnectionRepo{
		getByPairFn: func(ctx context.Context, organizationID, providerID string) (*domain.Connection, error) {
			return &domain.Connection{
				ID:             "c1",
				OrganizationID: organizationID,
				ProviderID:     providerID,
				Status:         domain.ConnectionAccepted,
			}, nil
		},
	}

	svc := newConnectionServiceForTest(t, &fakeInvitationRepo{}, connections, &fakeEventSink{})

	_, err := svc.CreateInvitation(context.Background(), "org-1", "prov-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestConnectionServiceRespondAccept(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	pending := &domain.Invitation{
		ID:             "i1",
		OrganizationID: "org-1",
		ProviderID:     "prov-1",
		Status:         domain.InvitationPending,
		ExpiresAt:      baseNow.Add(time.Hour),
	}

	var casExpected domain.InvitationStatus
	var casNext domain.InvitationStatus
	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			copied := *pending
			return &copied, nil
		},
		updateStatusFn: func(ctx context.Context, id string, expected, next domain.InvitationStatus, respondedAt *time.Time, rejectionReason *string) error {
			casExpected = expected
			casNext = next
			return nil
		},
	}

	var createdConnection *domain.Connection
	connections := &fakeConnectionRepo{
		createFn: func(ctx context.Context, c *domain.Connection) error {
			createdConnection = c
			return nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, connections, sink)

	invitation, err := svc.RespondToInvitation(context.Background(), "i1", domain.InvitationActionAccept, "")
	if err != nil {
		t.Fatalf("RespondToInvitation() error = %v", err)
	}

	if casExpected != domain.InvitationPending || casNext != domain.InvitationAccepted {
		t.Fatalf("cas = %s -> %s, want PENDING -> ACCEPTED", casExpected, casNext)
	}
	if invitation.Status != domain.InvitationAccepted {
		t.Fatalf("status = %s, want ACCEPTED", invitation.Status)
	}
	if createdConnection == nil {
		t.Fatal("accepting must create a connection")
	}
	if createdConnection.Status != domain.ConnectionAccepted {
		t.Fatalf("connection status = %s, want ACCEPTED", createdConnection.Status)
	}
	if createdConnection.InvitationID != "i1" {
		t.Fatalf("connection invitation id = %s, want i1", createdConnection.InvitationID)
	}

	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	if sink.events[0].EventType != domain.EventInvitationAccepted {
		t.Fatalf("event type = %s, want invitation.accepted", sink.events[0].EventType)
	}
	if sink.events[0].Context["connectionId"] != createdConnection.ID {
		t.Fatalf("event connectionId = %q, want %q", sink.events[0].Context["connectionId"], createdConnection.ID)
	}
}

func TestConnectionServiceRespondRejectRequiresReason(t *testing.T) {
	t.Parallel()

	svc := newConnectionServiceForTest(t, &fakeInvitationRepo{}, &fakeConnectionRepo{}, &fakeEventSink{})

	_, err := svc.RespondToInvitation(context.Background(), "i1", domain.InvitationActionReject, "  ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestConnectionServiceRespondReject(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	var gotReason *string
	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			return &domain.Invitation{
				ID:             "i1",
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         domain.InvitationPending,
				ExpiresAt:      baseNow.Add(time.Hour),
			}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, expected, next domain.InvitationStatus, respondedAt *time.Time, rejectionReason *string) error {
			if next != domain.InvitationRejected {
				t.Fatalf("next = %s, want REJECTED", next)
			}
			gotReason = rejectionReason
			return nil
		},
	}
	connections := &fakeConnectionRepo{
		createFn: func(ctx context.Context, c *domain.Connection) error {
			t.Fatal("rejecting must not create a connection")
			return nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, connections, sink)

	invitation, err := svc.RespondToInvitation(context.Background(), "i1", domain.InvitationActionReject, "fully booked")
	if err != nil {
		t.Fatalf("RespondToInvitation() error = %v", err)
	}
	if invitation.Status != domain.InvitationRejected {
		t.Fatalf("status = %s, want REJECTED", invitation.Status)
	}
	if gotReason == nil || *gotReason != "fully booked" {
		t.Fatalf("rejection reason = %v, want fully booked", gotReason)
	}
	if len(sink.events) != 1 || sink.events[0].EventType != domain.EventInvitationRejected {
		t.Fatalf("events = %v, want one invitation.rejected", sink.events)
	}
}

func TestConnectionServiceRespondDoubleSubmission(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	respondedAt := baseNow.Add(-time.Minute)
	accepted := &domain.Invitation{
		ID:             "i1",
		OrganizationID: "org-1",
		ProviderID:     "prov-1",
		Status:         domain.InvitationAccepted,
		ExpiresAt:      baseNow.Add(time.Hour),
		RespondedAt:    &respondedAt,
	}

	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			return accepted, nil
		},
		updateStatusFn: func(ctx context.Context, id string, expected, next domain.InvitationStatus, at *time.Time, reason *string) error {
			t.Fatal("no transition should be attempted on a resolved invitation")
			return nil
		},
	}
	connections := &fakeConnectionRepo{
		createFn: func(ctx context.Context, c *domain.Connection) error {
			t.Fatal("a second submission must not create another connection")
			return nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, connections, sink)

	invitation, err := svc.RespondToInvitation(context.Background(), "i1", domain.InvitationActionAccept, "")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if invitation == nil || invitation.Status != domain.InvitationAccepted {
		t.Fatalf("invitation = %v, want current ACCEPTED state returned", invitation)
	}
	if len(sink.events) != 0 {
		t.Fatal("a lost double submission must not emit events")
	}
}

func TestConnectionServiceRespondLosesRace(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	calls := 0
	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			calls++
			status := domain.InvitationPending
			if calls > 1 {
				// The concurrent accept landed between our read and our CAS.
				status = domain.InvitationAccepted
			}
			return &domain.Invitation{
				ID:             "i1",
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         status,
				ExpiresAt:      baseNow.Add(time.Hour),
			}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, expected, next domain.InvitationStatus, at *time.Time, reason *string) error {
			return domain.ErrConflict
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, &fakeConnectionRepo{}, sink)

	invitation, err := svc.RespondToInvitation(context.Background(), "i1", domain.InvitationActionReject, "too far")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if invitation.Status != domain.InvitationAccepted {
		t.Fatalf("status = %s, want the winner's ACCEPTED state", invitation.Status)
	}
	if len(sink.events) != 0 {
		t.Fatal("the losing call must not emit events")
	}
}

func TestConnectionServiceRespondPastDeadline(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			return &domain.Invitation{
				ID:             "i1",
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         domain.InvitationPending,
				ExpiresAt:      baseNow.Add(-time.Minute),
			}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, expected, next domain.InvitationStatus, at *time.Time, reason *string) error {
			if next != domain.InvitationExpired {
				t.Fatalf("next = %s, want EXPIRED", next)
			}
			return nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, &fakeConnectionRepo{}, sink)

	_, err := svc.RespondToInvitation(context.Background(), "i1", domain.InvitationActionAccept, "")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if len(sink.events) != 1 || sink.events[0].EventType != domain.EventInvitationExpired {
		t.Fatalf("events = %v, want one invitation.expired", sink.events)
	}
}

func TestConnectionServiceRespondAcceptConnectionRace(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	existing := &domain.Connection{
		ID:             "c-existing",
		OrganizationID: "org-1",
		ProviderID:     "prov-1",
		Status:         domain.ConnectionAccepted,
		InvitationID:   "i1",
	}

	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			return &domain.Invitation{
				ID:             "i1",
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         domain.InvitationPending,
				ExpiresAt:      baseNow.Add(time.Hour),
			}, nil
		},
	}
	connections := &fakeConnectionRepo{
		createFn: func(ctx context.Context, c *domain.Connection) error {
			return domain.ErrConflict
		},
		getByInvitationIDFn: func(ctx context.Context, invitationID string) (*domain.Connection, error) {
			return existing, nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, connections, sink)

	_, err := svc.RespondToInvitation(context.Background(), "i1", domain.InvitationActionAccept, "")
	if err != nil {
		t.Fatalf("RespondToInvitation() error = %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	if sink.events[0].Context["connectionId"] != "c-existing" {
		t.Fatalf("event connectionId = %q, want c-existing", sink.events[0].Context["connectionId"])
	}
}

func TestConnectionServiceRespondAcceptReattachesSuspendedConnection(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	suspended := &domain.Connection{
		ID:             "c-old",
		OrganizationID: "org-1",
		ProviderID:     "prov-1",
		Status:         domain.ConnectionSuspended,
		InvitationID:   "i-old",
	}

	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			return &domain.Invitation{
				ID:             "i2",
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         domain.InvitationPending,
				ExpiresAt:      baseNow.Add(time.Hour),
			}, nil
		},
	}

	var reattachedID, reattachedInvitationID string
	connections := &fakeConnectionRepo{
		createFn: func(ctx context.Context, c *domain.Connection) error {
			return domain.ErrConflict
		},
		getByInvitationIDFn: func(ctx context.Context, invitationID string) (*domain.Connection, error) {
			return nil, domain.ErrNotFound
		},
		getByPairFn: func(ctx context.Context, organizationID, providerID string) (*domain.Connection, error) {
			return suspended, nil
		},
		reattachFn: func(ctx context.Context, id, invitationID string) error {
			reattachedID = id
			reattachedInvitationID = invitationID
			return nil
		},
		getByIDFn: func(ctx context.Context, id string) (*domain.Connection, error) {
			return &domain.Connection{
				ID:             "c-old",
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         domain.ConnectionAccepted,
				InvitationID:   "i2",
			}, nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, connections, sink)

	invitation, err := svc.RespondToInvitation(context.Background(), "i2", domain.InvitationActionAccept, "")
	if err != nil {
		t.Fatalf("RespondToInvitation() error = %v", err)
	}
	if invitation.Status != domain.InvitationAccepted {
		t.Fatalf("invitation status = %s, want ACCEPTED", invitation.Status)
	}
	if reattachedID != "c-old" || reattachedInvitationID != "i2" {
		t.Fatalf("Reattach(%q, %q), want (c-old, i2)", reattachedID, reattachedInvitationID)
	}
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	if sink.events[0].Context["connectionId"] != "c-old" {
		t.Fatalf("event connectionId = %q, want c-old", sink.events[0].Context["connectionId"])
	}
}

func TestConnectionServiceExpireInvitationNoOpOnTerminal(t *testing.T) {
	t.Parallel()

	invitations := &fakeInvitationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Invitation, error) {
			return &domain.Invitation{ID: "i1", Status: domain.InvitationAccepted}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, expected, next domain.InvitationStatus, at *time.Time, reason *string) error {
			t.Fatal("no transition should be attempted on a resolved invitation")
			return nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, invitations, &fakeConnectionRepo{}, sink)

	invitation, err := svc.ExpireInvitation(context.Background(), "i1")
	if err != nil {
		t.Fatalf("ExpireInvitation() error = %v", err)
	}
	if invitation.Status != domain.InvitationAccepted {
		t.Fatalf("status = %s, want ACCEPTED unchanged", invitation.Status)
	}
	if len(sink.events) != 0 {
		t.Fatal("a no-op expiry must not emit events")
	}
}

func TestConnectionServiceSuspendAndReactivate(t *testing.T) {
	t.Parallel()

	status := domain.ConnectionAccepted
	connections := &fakeConnectionRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Connection, error) {
			return &domain.Connection{
				ID:             "c1",
				OrganizationID: "org-1",
				ProviderID:     "prov-1",
				Status:         status,
			}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, expected, next domain.ConnectionStatus) error {
			if status != expected {
				return domain.ErrConflict
			}
			status = next
			return nil
		},
	}
	sink := &fakeEventSink{}

	svc := newConnectionServiceForTest(t, &fakeInvitationRepo{}, connections, sink)

	connection, err := svc.SuspendConnection(context.Background(), "c1")
	if err != nil {
		t.Fatalf("SuspendConnection() error = %v", err)
	}
	if connection.Status != domain.ConnectionSuspended {
		t.Fatalf("status = %s, want SUSPENDED", connection.Status)
	}

	// Suspending again conflicts and reports the current state.
	connection, err = svc.SuspendConnection(context.Background(), "c1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if connection.Status != domain.ConnectionSuspended {
		t.Fatalf("status = %s, want SUSPENDED", connection.Status)
	}

	connection, err = svc.ReactivateConnection(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ReactivateConnection() error = %v", err)
	}
	if connection.Status != domain.ConnectionAccepted {
		t.Fatalf("status = %s, want ACCEPTED", connection.Status)
	}

	if len(sink.events) != 2 {
		t.Fatalf("events = %d, want 2", len(sink.events))
	}
	if sink.events[0].EventType != domain.EventConnectionSuspended {
		t.Fatalf("first event = %s, want connection.suspended", sink.events[0].EventType)
	}
	if sink.events[1].EventType != domain.EventConnectionReactivated {
		t.Fatalf("second event = %s, want connection.reactivated", sink.events[1].EventType)
	}
}

func TestConnectionServiceEmitFailureDoesNotFailTransition(t *testing.T) {
	t.Parallel()

	invitations := &fakeInvitationRepo{}
	sink := &fakeEventSink{
		enqueueFn: func(ctx context.Context, event domain.Event) error {
			return errors.New("broker unavailable")
		},
	}

	svc := newConnectionServiceForTest(t, invitations, &fakeConnectionRepo{}, sink)

	if _, err := svc.CreateInvitation(context.Background(), "org-1", "prov-1"); err != nil {
		t.Fatalf("CreateInvitation() error = %v", err)
	}
}

type fakeEventSink struct {
	enqueueFn func(ctx context.Context, event domain.Event) error
	events    []domain.Event
}

func (f *fakeEventSink) Enqueue(ctx context.Context, event domain.Event) error {
	if f.enqueueFn != nil {
		return f.enqueueFn(ctx, event)
	}
	f.events = append(f.events, event)
	return nil
}

type fakeInvitationRepo struct {
	createFn             func(ctx context.Context, i *domain.Invitation) error
	getByIDFn            func(ctx context.Context, id string) (*domain.Invitation, error)
	updateStatusFn       func(ctx context.Context, id string, expected, next domain.InvitationStatus, respondedAt *time.Time, rejectionReason *string) error
	hasPendingFn         func(ctx context.Context, organizationID, providerID string) (bool, error)
	listExpiredPendingFn func(ctx context.Context, asOf time.Time, limit int) ([]domain.Invitation, error)
}

func (f *fakeInvitationRepo) Create(ctx context.Context, i *domain.Invitation) error {
	if f.createFn != nil {
		return f.createFn(ctx, i)
	}
	return nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id string, expected, next domain.InvitationStatus, respondedAt *time.Time, rejectionReason *string) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, expected, next, respondedAt, rejectionReason)
	}
	return nil
}

func (f *fakeInvitationRepo) HasPending(ctx context.Context, organizationID, providerID string) (bool, error) {
	if f.hasPendingFn != nil {
		return f.hasPendingFn(ctx, organizationID, providerID)
	}
	return false, nil
}

func (f *fakeInvitationRepo) ListExpiredPending(ctx context.Context, asOf time.Time, limit int) ([]domain.Invitation, error) {
	if f.listExpiredPendingFn != nil {
		return f.listExpiredPendingFn(ctx, asOf, limit)
	}
	return nil, nil
}

var _ repository.InvitationRepository = (*fakeInvitationRepo)(nil)

type fakeConnectionRepo struct {
	createFn            func(ctx context.Context, c *domain.Connection) error
	getByIDFn           func(ctx context.Context, id string) (*domain.Connection, error)
	getByPairFn         func(ctx context.Context, organizationID, providerID string) (*domain.Connection, error)
	getByInvitationIDFn func(ctx context.Context, invitationID string) (*domain.Connection, error)
	updateStatusFn      func(ctx context.Context, id string, expected, next domain.ConnectionStatus) error
	reattachFn          func(ctx context.Context, id, invitationID string) error
}

func (f *fakeConnectionRepo) Create(ctx context.Context, c *domain.Connection) error {
	if f.createFn != nil {
		return f.createFn(ctx, c)
	}
	return nil
}

func (f *fakeConnectionRepo) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConnectionRepo) GetByPair(ctx context.Context, organizationID, providerID string) (*domain.Connection, error) {
	if f.getByPairFn != nil {
		return f.getByPairFn(ctx, organizationID, providerID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConnectionRepo) GetByInvitationID(ctx context.Context, invitationID string) (*domain.Connection, error) {
	if f.getByInvitationIDFn != nil {
		return f.getByInvitationIDFn(ctx, invitationID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConnectionRepo) UpdateStatus(ctx context.Context, id string, expected, next domain.ConnectionStatus) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, expected, next)
	}
	return nil
}

func (f *fakeConnectionRepo) Reattach(ctx context.Context, id, invitationID string) error {
	if f.reattachFn != nil {
		return f.reattachFn(ctx, id, invitationID)
	}
	return nil
}

var _ repository.ConnectionRepository = (*fakeConnectionRepo)(nil)
