package service

import (
	"context"
	"errors"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/repository"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

// UnavailabilityService manages the caller's excluded dates.
type UnavailabilityService struct {
	repo repository.UnavailabilityRepository
}

// NewUnavailabilityService creates the service.
func NewUnavailabilityService(repo repository.UnavailabilityRepository) *UnavailabilityService {
	return &UnavailabilityService{repo: repo}
}

// Create excludes the caller on the given date.
func (s *UnavailabilityService) Create(ctx context.Context, actor *domain.Person, dateStr string) (*domain.Unavailability, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("person required")
	}
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": dateStr})
	}
	record := &domain.Unavailability{PersonID: actor.ID, Date: date}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateUnavailability) {
			return nil, apperrors.NewConflict("unavailability already registered for this date", map[string]any{"date": dateStr})
		}
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// List returns the caller's records, optionally narrowed to one month.
func (s *UnavailabilityService) List(ctx context.Context, actor *domain.Person, year, month int) ([]domain.Unavailability, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("person required")
	}
	if (year == 0) != (month == 0) {
		return nil, apperrors.NewValidationError("month and year must be given together", map[string]any{"month": month, "year": year})
	}
	if month < 0 || month > 12 {
		return nil, apperrors.NewValidationError("month must be between 1 and 12", map[string]any{"month": month})
	}
	records, err := s.repo.ListByPerson(ctx, actor.ID, repository.UnavailabilityFilter{Year: year, Month: month})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// Delete removes the caller's record for the date.
func (s *UnavailabilityService) Delete(ctx context.Context, actor *domain.Person, dateStr string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("person required")
	}
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": dateStr})
	}
	removed, err := s.repo.Delete(ctx, actor.ID, date)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !removed {
		return apperrors.NewNotFound("unavailability", map[string]any{"date": dateStr})
	}
	return nil
}
