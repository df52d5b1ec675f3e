package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookline/internal/domain"
)

// VerificationService issues and consumes single-use tokens.
type VerificationService interface {
	IssueToken(ctx context.Context, subjectID string, purpose domain.TokenPurpose) (*domain.VerificationToken, error)
	ConsumeToken(ctx context.Context, token string) (*domain.VerificationToken, error)
}

type VerificationHandler struct {
	service VerificationService
}

func NewVerificationHandler(service VerificationService) (*VerificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("verification service is required")
	}
	return &VerificationHandler{service: service}, nil
}

func RegisterVerificationRoutes(router fiber.Router, service VerificationService) error {
	h, err := NewVerificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/tokens", h.IssueToken)
	v1.Post("/tokens/:token/consume", h.ConsumeToken)

	return nil
}

type issueTokenRequest struct {
	SubjectID string `json:"subjectId"`
	Purpose   string `json:"purpose"`
}

type tokenResponse struct {
	Token      string     `json:"token"`
	SubjectID  string     `json:"subjectId"`
	Purpose    string     `json:"purpose"`
	Status     string     `json:"status"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
}

func (h *VerificationHandler) IssueToken(c *fiber.Ctx) error {
	var req issueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	purpose := domain.TokenPurpose(strings.ToUpper(strings.TrimSpace(req.Purpose)))
	token, err := h.service.IssueToken(c.UserContext(), strings.TrimSpace(req.SubjectID), purpose)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTokenResponse(token))
}

// ConsumeToken consumes a single-use token. On a replay the caller gets 409
// with the token's current state so it can distinguish "already verified"
// from "never existed".
func (h *VerificationHandler) ConsumeToken(c *fiber.Ctx) error {
	token, err := h.service.ConsumeToken(c.UserContext(), strings.TrimSpace(c.Params("token")))
	if err != nil {
		if token != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
				"token": toTokenResponse(token),
			})
		}
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toTokenResponse(token))
}

func toTokenResponse(t *domain.VerificationToken) tokenResponse {
	if t == nil {
		return tokenResponse{}
	}

	return tokenResponse{
		Token:      t.Token,
		SubjectID:  t.SubjectID,
		Purpose:    string(t.Purpose),
		Status:     t.Status.String(),
		ExpiresAt:  t.ExpiresAt,
		ConsumedAt: t.ConsumedAt,
	}
}
