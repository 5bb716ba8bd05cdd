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

// Authenticator is the credential flow the users handler depends on.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
	Profile(ctx context.Context, username string) (*domain.User, error)
}

// UsersHandler exposes registration, login and profile endpoints.
type UsersHandler struct {
	auth Authenticator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService Authenticator) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /register and answers with a message only.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	if _, err := h.register(c); err != nil {
		return err
	}
	return c.SendString("User registered successfully")
}

// RegisterWithToken handles POST /api/auth/register.
func (h *UsersHandler) RegisterWithToken(c *fiber.Ctx) error {
	result, err := h.register(c)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authResponse(result))
}

// Login handles POST /api/auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(result))
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Lookup handles GET /api/admin/users/:username.
func (h *UsersHandler) Lookup(c *fiber.Ctx) error {
	user, err := h.auth.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *UsersHandler) register(c *fiber.Ctx) (*service.AuthResult, error) {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	return h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{Token: result.Token.Value, ExpiresAt: result.Token.ExpiresAt}
}
