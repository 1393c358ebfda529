package service

import (
	"context"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/repository"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

// StatisticsService exposes the workload ledger read side.
type StatisticsService struct {
	ledger repository.WorkloadRepository
	people repository.PersonRepository
}

// NewStatisticsService creates the service.
func NewStatisticsService(ledger repository.WorkloadRepository, people repository.PersonRepository) *StatisticsService {
	return &StatisticsService{ledger: ledger, people: people}
}

// ForPerson returns the caller's statistic, zero when they were never assigned.
func (s *StatisticsService) ForPerson(ctx context.Context, actor *domain.Person) (domain.WorkloadStatistic, error) {
	if actor == nil {
		return domain.WorkloadStatistic{}, apperrors.NewUnauthorized("person required")
	}
	stat, err := s.ledger.Get(ctx, actor.ID)
	if err != nil {
		return domain.WorkloadStatistic{}, apperrors.MapError(err)
	}
	return stat, nil
}

// All returns one statistic per active person, including zero rows for people
// without history, followed by inactive people that still carry load.
func (s *StatisticsService) All(ctx context.Context) ([]domain.WorkloadStatistic, error) {
	stats, err := s.ledger.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	roster, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	byPerson := make(map[string]domain.WorkloadStatistic, len(stats))
	for _, stat := range stats {
		byPerson[stat.PersonID] = stat
	}
	result := make([]domain.WorkloadStatistic, 0, len(roster)+len(stats))
	for _, p := range roster {
		stat, ok := byPerson[p.ID]
		if !ok {
			stat = domain.WorkloadStatistic{PersonID: p.ID}
		}
		result = append(result, stat)
		delete(byPerson, p.ID)
	}
	for _, stat := range stats {
		if _, left := byPerson[stat.PersonID]; left {
			result = append(result, stat)
		}
	}
	return result, nil
}
