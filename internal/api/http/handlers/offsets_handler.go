package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/offset-service/internal/api/dto"
	"github.com/spec-kit/offset-service/internal/auth"
	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/service"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

// OffsetManager is the offset CRUD surface.
type OffsetManager interface {
	List(ctx context.Context, caller *domain.User) ([]domain.NamedOffset, error)
	Get(ctx context.Context, caller *domain.User, id string) (*domain.NamedOffset, error)
	Create(ctx context.Context, caller *domain.User, input service.OffsetInput) (*domain.NamedOffset, error)
	Update(ctx context.Context, caller *domain.User, id string, input service.OffsetInput) (*domain.NamedOffset, error)
	Delete(ctx context.Context, caller *domain.User, id string) error
}

// OffsetsHandler manages /api/timezones.
type OffsetsHandler struct {
	offsets OffsetManager
}

// NewOffsetsHandler constructs handler.
func NewOffsetsHandler(offsets OffsetManager) *OffsetsHandler {
	return &OffsetsHandler{offsets: offsets}
}

// List GET /api/timezones/user/timezones.
func (h *OffsetsHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	list, err := h.offsets.List(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOffsetResponses(list))
}

// Get GET /api/timezones/:id.
func (h *OffsetsHandler) Get(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	record, err := h.offsets.Get(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOffsetResponse(record))
}

// Create POST /api/timezones.
func (h *OffsetsHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	input, err := parseOffsetRequest(c)
	if err != nil {
		return err
	}
	record, err := h.offsets.Create(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewOffsetResponse(record))
}

// Update PUT /api/timezones/:id.
func (h *OffsetsHandler) Update(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	input, err := parseOffsetRequest(c)
	if err != nil {
		return err
	}
	record, err := h.offsets.Update(c.UserContext(), caller, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewOffsetResponse(record))
}

// Delete DELETE /api/timezones/:id.
func (h *OffsetsHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.offsets.Delete(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}

func parseOffsetRequest(c *fiber.Ctx) (service.OffsetInput, error) {
	var req dto.OffsetRequest
	if err := c.BodyParser(&req); err != nil {
		return service.OffsetInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return service.OffsetInput{}, err
	}
	return service.OffsetInput{Label: req.Label, City: req.City, Offset: req.Offset}, nil
}

func callerFrom(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}
