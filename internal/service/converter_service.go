package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/observability"
	"github.com/spec-kit/offset-service/internal/repository"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

// LocalDateTimeLayout is the only accepted timestamp literal: no zone, no fraction in output.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// ConverterService converts naive timestamps between a caller's named offsets.
type ConverterService struct {
	offsets repository.OffsetRepository
	metrics *observability.Metrics
}

// NewConverterService constructs the service.
func NewConverterService(offsets repository.OffsetRepository, metrics *observability.Metrics) *ConverterService {
	return &ConverterService{offsets: offsets, metrics: metrics}
}

// Convert re-expresses naive, read in the caller's source offset, in the caller's
// target offset. Labels owned by other users resolve exactly like missing ones.
func (s *ConverterService) Convert(ctx context.Context, caller *domain.User, sourceLabel, targetLabel, naive string) (string, error) {
	source, err := s.resolve(ctx, caller, sourceLabel)
	if err != nil {
		s.metrics.RecordConversion("not_found")
		return "", err
	}
	target, err := s.resolve(ctx, caller, targetLabel)
	if err != nil {
		s.metrics.RecordConversion("not_found")
		return "", err
	}

	if !hasLocalDateTimeShape(naive) {
		s.metrics.RecordConversion("invalid_time")
		return "", apperrors.NewInvalidTimeFormat(naive)
	}
	wall, err := time.Parse(LocalDateTimeLayout, naive)
	if err != nil {
		s.metrics.RecordConversion("invalid_time")
		return "", apperrors.NewInvalidTimeFormat(naive)
	}

	converted, err := ConvertWallClock(wall, source, target)
	if err != nil {
		s.metrics.RecordConversion("invalid_offset")
		return "", err
	}
	s.metrics.RecordConversion("ok")
	return converted.Format(LocalDateTimeLayout), nil
}

// ConvertWallClock shifts a wall-clock reading by target minus source.
func ConvertWallClock(wall time.Time, source, target *domain.NamedOffset) (time.Time, error) {
	sourceLoc, err := source.Location()
	if err != nil {
		return time.Time{}, apperrors.NewInternalError(err)
	}
	targetLoc, err := target.Location()
	if err != nil {
		return time.Time{}, apperrors.NewInternalError(err)
	}
	instant := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), 0, sourceLoc)
	return instant.In(targetLoc), nil
}

// hasLocalDateTimeShape checks the fixed-width YYYY-MM-DDTHH:mm:ss form, optionally
// followed by a fraction of one to nine digits. time.Parse alone accepts one-digit hours.
func hasLocalDateTimeShape(literal string) bool {
	const width = len(LocalDateTimeLayout)
	if len(literal) < width {
		return false
	}
	for i := 0; i < width; i++ {
		ch := literal[i]
		switch i {
		case 4, 7:
			if ch != '-' {
				return false
			}
		case 10:
			if ch != 'T' {
				return false
			}
		case 13, 16:
			if ch != ':' {
				return false
			}
		default:
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	fraction := literal[width:]
	if fraction == "" {
		return true
	}
	if fraction[0] != '.' || len(fraction) < 2 || len(fraction) > 10 {
		return false
	}
	for i := 1; i < len(fraction); i++ {
		if fraction[i] < '0' || fraction[i] > '9' {
			return false
		}
	}
	return true
}

func (s *ConverterService) resolve(ctx context.Context, caller *domain.User, label string) (*domain.NamedOffset, error) {
	if caller == nil {
		return nil, apperrors.NewTimezoneNotFound()
	}
	record, err := s.offsets.FindByLabelAndOwner(ctx, label, caller.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewTimezoneNotFound()
		}
		return nil, err
	}
	return record, nil
}
