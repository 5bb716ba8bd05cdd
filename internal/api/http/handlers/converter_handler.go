package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/offset-service/internal/domain"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

// Converter converts a naive timestamp between two of the caller's offsets.
type Converter interface {
	Convert(ctx context.Context, caller *domain.User, sourceLabel, targetLabel, naive string) (string, error)
}

// ConverterHandler serves /convert-time.
type ConverterHandler struct {
	converter Converter
}

// NewConverterHandler constructs handler.
func NewConverterHandler(converter Converter) *ConverterHandler {
	return &ConverterHandler{converter: converter}
}

// Convert GET /convert-time?sourceZone=&targetZone=&time=. Responds with the bare literal.
func (h *ConverterHandler) Convert(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	missing := map[string]any{}
	for _, name := range []string{"sourceZone", "targetZone", "time"} {
		if _, ok := c.Queries()[name]; !ok {
			missing[name] = "is required"
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing query parameters", missing)
	}

	converted, err := h.converter.Convert(c.UserContext(), caller, c.Query("sourceZone"), c.Query("targetZone"), c.Query("time"))
	if err != nil {
		return err
	}
	return c.SendString(converted)
}
