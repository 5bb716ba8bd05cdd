package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/events"
	"github.com/spec-kit/offset-service/internal/repository"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

// OffsetService manages a caller's named offsets.
type OffsetService struct {
	offsets    repository.OffsetRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// OffsetInput carries the writable fields of a named offset.
type OffsetInput struct {
	Label  string
	City   string
	Offset string
}

// NewOffsetService constructs the service.
func NewOffsetService(offsets repository.OffsetRepository, dispatcher events.Dispatcher, logger *zap.Logger) *OffsetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OffsetService{offsets: offsets, dispatcher: dispatcher, logger: logger}
}

// List returns every offset owned by caller.
func (s *OffsetService) List(ctx context.Context, caller *domain.User) ([]domain.NamedOffset, error) {
	return s.offsets.ListByOwner(ctx, caller.ID)
}

// Get returns a single offset owned by caller.
func (s *OffsetService) Get(ctx context.Context, caller *domain.User, id string) (*domain.NamedOffset, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(record, caller, "view"); err != nil {
		return nil, err
	}
	return record, nil
}

// Create stores a new offset owned by caller.
func (s *OffsetService) Create(ctx context.Context, caller *domain.User, input OffsetInput) (*domain.NamedOffset, error) {
	if err := validateOffsetInput(input); err != nil {
		return nil, err
	}
	record := &domain.NamedOffset{
		Label:   strings.TrimSpace(input.Label),
		City:    strings.TrimSpace(input.City),
		Offset:  input.Offset,
		OwnerID: caller.ID,
	}
	if err := s.offsets.Create(ctx, record); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventOffsetCreated, caller, record)
	return record, nil
}

// Update rewrites label, city and offset. Existence is checked before ownership.
func (s *OffsetService) Update(ctx context.Context, caller *domain.User, id string, input OffsetInput) (*domain.NamedOffset, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(record, caller, "update"); err != nil {
		return nil, err
	}
	if err := validateOffsetInput(input); err != nil {
		return nil, err
	}

	record.Label = strings.TrimSpace(input.Label)
	record.City = strings.TrimSpace(input.City)
	record.Offset = input.Offset
	if err := s.offsets.Update(ctx, record); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventOffsetUpdated, caller, record)
	return record, nil
}

// Delete removes an offset. Existence is checked before ownership.
func (s *OffsetService) Delete(ctx context.Context, caller *domain.User, id string) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(record, caller, "delete"); err != nil {
		return err
	}
	if err := s.offsets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundOffset(id)
		}
		return err
	}
	s.publishEvent(ctx, events.EventOffsetDeleted, caller, record)
	return nil
}

func (s *OffsetService) load(ctx context.Context, id string) (*domain.NamedOffset, error) {
	record, err := s.offsets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundOffset(id)
		}
		return nil, err
	}
	return record, nil
}

func (s *OffsetService) publishEvent(ctx context.Context, t events.EventType, caller *domain.User, record *domain.NamedOffset) {
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:       t,
		ResourceID: record.ID,
		Actor:      caller.Username,
		Payload: events.OffsetPayload{
			Label:   record.Label,
			City:    record.City,
			Offset:  record.Offset,
			OwnerID: record.OwnerID,
		},
	})
}

func notFoundOffset(id string) error {
	return apperrors.NewNotFound("time zone", map[string]any{"id": id})
}

func validateOffsetInput(input OffsetInput) error {
	label := strings.TrimSpace(input.Label)
	if n := len([]rune(label)); n < 3 || n > 100 {
		return apperrors.NewValidationError("invalid time zone", map[string]any{"label": "must be between 3 and 100 characters"})
	}
	if !domain.ValidOffset(input.Offset) {
		return apperrors.NewValidationError("invalid time zone", map[string]any{"offset": "must match ±HH:mm"})
	}
	return nil
}
