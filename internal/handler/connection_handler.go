package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookline/internal/domain"
)

// ConnectionService covers the provider-organization relationship lifecycle.
type ConnectionService interface {
	CreateInvitation(ctx context.Context, organizationID, providerID string) (*domain.Invitation, error)
	RespondToInvitation(ctx context.Context, invitationID string, action domain.InvitationAction, rejectionReason string) (*domain.Invitation, error)
	GetInvitation(ctx context.Context, invitationID string) (*domain.Invitation, error)
	SuspendConnection(ctx context.Context, connectionID string) (*domain.Connection, error)
	ReactivateConnection(ctx context.Context, connectionID string) (*domain.Connection, error)
	GetConnection(ctx context.Context, connectionID string) (*domain.Connection, error)
}

type ConnectionHandler struct {
	service ConnectionService
}

func NewConnectionHandler(service ConnectionService) (*ConnectionHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("connection service is required")
	}
	return &ConnectionHandler{service: service}, nil
}

func RegisterConnectionRoutes(router fiber.Router, service ConnectionService) error {
	h, err := NewConnectionHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/invitations", h.CreateInvitation)
	v1.Get("/invitations/:id", h.GetInvitation)
	v1.Post("/invitations/:id/respond", h.RespondToInvitation)
	v1.Get("/connections/:id", h.GetConnection)
	v1.Post("/connections/:id/suspend", h.SuspendConnection)
	v1.Post("/connections/:id/reactivate", h.ReactivateConnection)

	return nil
}

type createInvitationRequest struct {
	OrganizationID string `json:"organizationId"`
	ProviderID     string `json:"providerId"`
}

type respondInvitationRequest struct {
	Action          string `json:"action"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

type invitationResponse struct {
	ID              string     `json:"id"`
	OrganizationID  string     `json:"organizationId"`
	ProviderID      string     `json:"providerId"`
	Status          string     `json:"status"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt,omitempty"`
}

type connectionResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	ProviderID     string    `json:"providerId"`
	Status         string    `json:"status"`
	InvitationID   string    `json:"invitationId"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

func (h *ConnectionHandler) CreateInvitation(c *fiber.Ctx) error {
	var req createInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	invitation, err := h.service.CreateInvitation(c.UserContext(), strings.TrimSpace(req.OrganizationID), strings.TrimSpace(req.ProviderID))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toInvitationResponse(invitation))
}

func (h *ConnectionHandler) GetInvitation(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	invitation, err := h.service.GetInvitation(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toInvitationResponse(invitation))
}

// RespondToInvitation applies the provider's accept or reject. A double
// submission gets 409 with the invitation's resolved state in the body, so
// the caller can see what actually won.
func (h *ConnectionHandler) RespondToInvitation(c *fiber.Ctx) error {
	var req respondInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	action, err := domain.ParseInvitationActionFromString(req.Action)
	if err != nil {
		return toHTTPError(err)
	}

	invitation, err := h.service.RespondToInvitation(c.UserContext(), strings.TrimSpace(c.Params("id")), action, req.RejectionReason)
	if err != nil {
		if invitation != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":      err.Error(),
				"invitation": toInvitationResponse(invitation),
			})
		}
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toInvitationResponse(invitation))
}

func (h *ConnectionHandler) GetConnection(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	connection, err := h.service.GetConnection(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toConnectionResponse(connection))
}

func (h *ConnectionHandler) SuspendConnection(c *fiber.Ctx) error {
	return h.transitionConnection(c, h.service.SuspendConnection)
}

func (h *ConnectionHandler) ReactivateConnection(c *fiber.Ctx) error {
	return h.transitionConnection(c, h.service.ReactivateConnection)
}

func (h *ConnectionHandler) transitionConnection(
	c *fiber.Ctx,
	transition func(ctx context.Context, connectionID string) (*domain.Connection, error),
) error {
	id := strings.TrimSpace(c.Params("id"))
	connection, err := transition(c.UserContext(), id)
	if err != nil {
		if connection != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":      err.Error(),
				"connection": toConnectionResponse(connection),
			})
		}
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toConnectionResponse(connection))
}

func toInvitationResponse(i *domain.Invitation) invitationResponse {
	if i == nil {
		return invitationResponse{}
	}

	return invitationResponse{
		ID:              i.ID,
		OrganizationID:  i.OrganizationID,
		ProviderID:      i.ProviderID,
		Status:          i.Status.String(),
		ExpiresAt:       i.ExpiresAt,
		RespondedAt:     i.RespondedAt,
		RejectionReason: i.RejectionReason,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func toConnectionResponse(conn *domain.Connection) connectionResponse {
	if conn == nil {
		return connectionResponse{}
	}

	return connectionResponse{
		ID:             conn.ID,
		OrganizationID: conn.OrganizationID,
		ProviderID:     conn.ProviderID,
		Status:         conn.Status.String(),
		InvitationID:   conn.InvitationID,
		CreatedAt:      conn.CreatedAt,
		UpdatedAt:      conn.UpdatedAt,
	}
}
