package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the kind of entity an event refers to.
type EntityType string

const (
	EntityInvitation EntityType = "INVITATION"
	EntityConnection EntityType = "CONNECTION"
	EntityBooking    EntityType = "BOOKING"
)

func (t EntityType) String() string { return string(t) }

func (t EntityType) IsValid() bool {
	switch t {
	case EntityInvitation, EntityConnection, EntityBooking:
		return true
	}
	return false
}

// EventType identifies what happened to an entity.
type EventType string

const (
	EventBookingCreated        EventType = "booking.created"
	EventBookingChanged        EventType = "booking.changed"
	EventInvitationCreated     EventType = "invitation.created"
	EventInvitationAccepted    EventType = "invitation.accepted"
	EventInvitationRejected    EventType = "invitation.rejected"
	EventInvitationExpired     EventType = "invitation.expired"
	EventConnectionSuspended   EventType = "connection.suspended"
	EventConnectionReactivated EventType = "connection.reactivated"
)

func (t EventType) String() string { return string(t) }

func (t EventType) IsValid() bool {
	switch t {
	case EventBookingCreated, EventBookingChanged,
		EventInvitationCreated, EventInvitationAccepted, EventInvitationRejected, EventInvitationExpired,
		EventConnectionSuspended, EventConnectionReactivated:
		return true
	}
	return false
}

func ParseEventTypeFromString(s string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid event type %q", ErrValidation, s)
	}
	return t, nil
}

// Context keys carried by booking events from the CRUD collaborator.
const (
	ContextGuestName      = "guestName"
	ContextGuestEmail     = "guestEmail"
	ContextGuestPhone     = "guestPhone"
	ContextProviderID     = "providerId"
	ContextOrganizationID = "organizationId"
	ContextServiceType    = "serviceType"
	ContextStartsAt       = "startsAt"
)

// Event is a structured domain event. State-machine transitions emit exactly
// one event per successful transition; booking events arrive from the booking
// CRUD collaborator at-least-once.
type Event struct {
	EntityType EntityType
	EntityID   string
	EventType  EventType
	FromStatus string
	ToStatus   string
	OccurredAt time.Time
	Context    map[string]string
}

func (e Event) Validate() error {
	if !e.EntityType.IsValid() {
		return fmt.Errorf("%w: invalid entity type %q", ErrValidation, e.EntityType)
	}
	if strings.TrimSpace(e.EntityID) == "" {
		return fmt.Errorf("%w: entity id is required", ErrValidation)
	}
	if !e.EventType.IsValid() {
		return fmt.Errorf("%w: invalid event type %q", ErrValidation, e.EventType)
	}
	return nil
}
