package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/events"
	"github.com/spec-kit/oncall-service/internal/repository"
	"github.com/spec-kit/oncall-service/internal/scheduler"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

// RotationService drives allocation runs and shift maintenance.
type RotationService struct {
	people          repository.PersonRepository
	shifts          repository.ShiftRepository
	engine          *scheduler.Engine
	notifier        scheduler.NotificationEmitter
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	seedFromHistory bool
	maxRangeDays    int
}

// RotationDependencies bundles collaborators.
type RotationDependencies struct {
	PersonRepo      repository.PersonRepository
	ShiftRepo       repository.ShiftRepository
	Engine          *scheduler.Engine
	Notifier        scheduler.NotificationEmitter
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	SeedFromHistory bool
	// MaxRangeDays caps the number of days in one run; zero means no cap.
	MaxRangeDays int
}

// NewRotationService creates the service.
func NewRotationService(deps RotationDependencies) *RotationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationService{
		people:          deps.PersonRepo,
		shifts:          deps.ShiftRepo,
		engine:          deps.Engine,
		notifier:        deps.Notifier,
		dispatcher:      deps.Dispatcher,
		logger:          logger,
		seedFromHistory: deps.SeedFromHistory,
		maxRangeDays:    deps.MaxRangeDays,
	}
}

// AssignRangeResult summarizes one allocation run.
type AssignRangeResult struct {
	Start      time.Time
	End        time.Time
	Days       []scheduler.DayResult
	Assigned   int
	Unassigned int
}

// AssignRange parses the YYYY-MM-DD bounds and allocates shifts for every
// active person. On cancellation the partial result is returned with the error.
func (s *RotationService) AssignRange(ctx context.Context, startStr, endStr string) (*AssignRangeResult, error) {
	start, err := domain.ParseDate(startStr)
	if err != nil {
		return nil, apperrors.NewValidationError("start_date must be YYYY-MM-DD", map[string]any{"start_date": startStr})
	}
	end, err := domain.ParseDate(endStr)
	if err != nil {
		return nil, apperrors.NewValidationError("end_date must be YYYY-MM-DD", map[string]any{"end_date": endStr})
	}
	if end.Before(start) {
		return nil, apperrors.NewInvalidRange(startStr, endStr)
	}
	if days := domain.DaysBetween(start, end) + 1; s.maxRangeDays > 0 && days > s.maxRangeDays {
		return nil, apperrors.NewValidationError("date range too long", map[string]any{
			"days":     days,
			"max_days": s.maxRangeDays,
		})
	}

	roster, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(roster) == 0 {
		return nil, apperrors.NewEmptyRoster()
	}

	state := scheduler.NewRunState()
	if s.seedFromHistory {
		ids := make([]string, len(roster))
		for i, p := range roster {
			ids[i] = p.ID
		}
		latest, err := s.shifts.LatestBefore(ctx, ids, start)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		state.Seed(latest)
	}

	days, runErr := s.engine.Assign(ctx, start, end, roster, state)
	result := &AssignRangeResult{Start: start, End: end, Days: days}
	for _, day := range days {
		if !day.Assigned() {
			result.Unassigned++
			continue
		}
		result.Assigned++
		s.publish(ctx, events.EventShiftAssigned, day.Shift.PersonID, events.ShiftAssignedPayload{
			ShiftID: day.Shift.ID,
			Date:    domain.FormatDate(day.Date),
		})
	}

	s.logger.Info("allocation run finished",
		zap.String("start", startStr),
		zap.String("end", endStr),
		zap.Int("assigned", result.Assigned),
		zap.Int("unassigned", result.Unassigned),
		zap.Error(runErr))

	if runErr != nil {
		switch {
		case errors.Is(runErr, scheduler.ErrInvalidRange):
			return result, apperrors.NewInvalidRange(startStr, endStr)
		case errors.Is(runErr, scheduler.ErrEmptyRoster):
			return result, apperrors.NewEmptyRoster()
		default:
			return result, apperrors.MapError(runErr)
		}
	}
	return result, nil
}

// ShiftQuery filters shift listings. Dates are YYYY-MM-DD strings, empty means unbounded.
type ShiftQuery struct {
	PersonID string
	From     string
	To       string
	Limit    int
	Offset   int
}

// ListShifts returns persisted assignments ordered by date.
func (s *RotationService) ListShifts(ctx context.Context, query ShiftQuery) ([]domain.ShiftAssignment, error) {
	filter := repository.ShiftFilter{Limit: query.Limit, Offset: query.Offset}
	if query.PersonID != "" {
		filter.PersonID = &query.PersonID
	}
	if query.From != "" {
		from, err := domain.ParseDate(query.From)
		if err != nil {
			return nil, apperrors.NewValidationError("from must be YYYY-MM-DD", map[string]any{"from": query.From})
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := domain.ParseDate(query.To)
		if err != nil {
			return nil, apperrors.NewValidationError("to must be YYYY-MM-DD", map[string]any{"to": query.To})
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperrors.NewInvalidRange(query.From, query.To)
	}
	shifts, err := s.shifts.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return shifts, nil
}

// RescheduleShift moves a shift to another date (admin override). The workload
// ledger is left untouched; it counts allocation decisions, not final dates.
func (s *RotationService) RescheduleShift(ctx context.Context, actor *domain.Person, shiftID, newDateStr string) (*domain.ShiftAssignment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("person required")
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can move shifts")
	}
	newDate, err := domain.ParseDate(newDateStr)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": newDateStr})
	}

	shift, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("shift", map[string]any{"shift_id": shiftID})
		}
		return nil, apperrors.MapError(err)
	}
	oldDate := shift.Date
	if oldDate.Equal(newDate) {
		return shift, nil
	}

	if err := s.shifts.UpdateDate(ctx, shiftID, newDate); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateAssignment):
			return nil, apperrors.NewDuplicateAssignment(map[string]any{
				"person_id": shift.PersonID,
				"date":      newDateStr,
			})
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("shift", map[string]any{"shift_id": shiftID})
		default:
			return nil, apperrors.MapError(err)
		}
	}
	shift.Date = newDate

	if s.notifier != nil {
		message := fmt.Sprintf("Your shift has been moved to %s.", domain.FormatDate(newDate))
		if _, err := s.notifier.Emit(ctx, shift.PersonID, message, domain.NotificationChannelEmail); err != nil {
			s.logger.Warn("queue reschedule notification", zap.String("shift_id", shiftID), zap.Error(err))
		}
	}
	s.publish(ctx, events.EventShiftRescheduled, shift.PersonID, events.ShiftRescheduledPayload{
		ShiftID: shift.ID,
		OldDate: domain.FormatDate(oldDate),
		NewDate: domain.FormatDate(newDate),
	})
	return shift, nil
}

func (s *RotationService) publish(ctx context.Context, eventType events.EventType, personID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		PersonID:  personID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
