// Package memory provides process-local implementations of the repository
// interfaces. It backs the service when no Postgres DSN is configured and
// is used throughout the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/repository"
)

type personDay struct {
	personID string
	day      string
}

// Store holds every table behind a single lock.
type Store struct {
	mu             sync.RWMutex
	now            func() time.Time
	people         map[string]*domain.Person
	unavailability map[personDay]*domain.Unavailability
	workload       map[string]*domain.WorkloadStatistic
	shifts         map[string]*domain.ShiftAssignment
	shiftIndex     map[personDay]string
	notifications  map[string]*domain.Notification
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:            time.Now,
		people:         make(map[string]*domain.Person),
		unavailability: make(map[personDay]*domain.Unavailability),
		workload:       make(map[string]*domain.WorkloadStatistic),
		shifts:         make(map[string]*domain.ShiftAssignment),
		shiftIndex:     make(map[personDay]string),
		notifications:  make(map[string]*domain.Notification),
	}
}

func key(personID string, date time.Time) personDay {
	return personDay{personID: personID, day: domain.FormatDate(date)}
}

// People returns the person repository view.
func (s *Store) People() repository.PersonRepository { return (*people)(s) }

// Unavailability returns the unavailability repository view.
func (s *Store) Unavailability() repository.UnavailabilityRepository { return (*unavailability)(s) }

// Workload returns the workload ledger view.
func (s *Store) Workload() repository.WorkloadRepository { return (*workload)(s) }

// Shifts returns the shift repository view.
func (s *Store) Shifts() repository.ShiftRepository { return (*shifts)(s) }

// Notifications returns the notification repository view.
func (s *Store) Notifications() repository.NotificationRepository { return (*notifications)(s) }

type people Store

func (r *people) Create(_ context.Context, person *domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	person.CreatedAt = r.now()
	person.UpdatedAt = person.CreatedAt
	cp := *person
	r.people[person.ID] = &cp
	return nil
}

func (r *people) Update(_ context.Context, person *domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.people[person.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	person.CreatedAt = existing.CreatedAt
	person.UpdatedAt = r.now()
	cp := *person
	r.people[person.ID] = &cp
	return nil
}

func (r *people) GetByID(_ context.Context, id string) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.people[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r *people) GetByUsername(_ context.Context, username string) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.people {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *people) ListActive(_ context.Context) ([]domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Person, 0, len(r.people))
	for _, p := range r.people {
		if p.Active {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type unavailability Store

func (r *unavailability) Create(_ context.Context, record *domain.Unavailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(record.PersonID, record.Date)
	if _, exists := r.unavailability[k]; exists {
		return repository.ErrDuplicateUnavailability
	}
	record.ID = uuid.NewString()
	record.Date = domain.TruncateDate(record.Date)
	record.CreatedAt = r.now()
	cp := *record
	r.unavailability[k] = &cp
	return nil
}

func (r *unavailability) Delete(_ context.Context, personID string, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(personID, date)
	if _, exists := r.unavailability[k]; !exists {
		return false, nil
	}
	delete(r.unavailability, k)
	return true, nil
}

func (r *unavailability) ListByPerson(_ context.Context, personID string, filter repository.UnavailabilityFilter) ([]domain.Unavailability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Unavailability
	for _, rec := range r.unavailability {
		if rec.PersonID != personID {
			continue
		}
		if filter.Year > 0 && filter.Month > 0 &&
			(rec.Date.Year() != filter.Year || int(rec.Date.Month()) != filter.Month) {
			continue
		}
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *unavailability) IsExcluded(_ context.Context, personID string, date time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.unavailability[key(personID, date)]
	return exists, nil
}

type workload Store

func (r *workload) Get(_ context.Context, personID string) (domain.WorkloadStatistic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if stat, ok := r.workload[personID]; ok {
		return *stat, nil
	}
	return domain.WorkloadStatistic{PersonID: personID}, nil
}

func (r *workload) IncrementForDate(_ context.Context, personID string, date time.Time) (domain.WorkloadStatistic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stat, ok := r.workload[personID]
	if !ok {
		stat = &domain.WorkloadStatistic{PersonID: personID}
		r.workload[personID] = stat
	}
	stat.Increment(domain.WeekdayIndex(date))
	return *stat, nil
}

func (r *workload) List(_ context.Context) ([]domain.WorkloadStatistic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.WorkloadStatistic, 0, len(r.workload))
	for _, stat := range r.workload {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total == result[j].Total {
			return result[i].PersonID < result[j].PersonID
		}
		return result[i].Total > result[j].Total
	})
	return result, nil
}

type shifts Store

func (r *shifts) Create(_ context.Context, shift *domain.ShiftAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(shift.PersonID, shift.Date)
	if _, exists := r.shiftIndex[k]; exists {
		return repository.ErrDuplicateAssignment
	}
	shift.ID = uuid.NewString()
	shift.Date = domain.TruncateDate(shift.Date)
	shift.CreatedAt = r.now()
	shift.UpdatedAt = shift.CreatedAt
	cp := *shift
	r.shifts[shift.ID] = &cp
	r.shiftIndex[k] = shift.ID
	return nil
}

func (r *shifts) GetByID(_ context.Context, id string) (*domain.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shift, ok := r.shifts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *shift
	return &cp, nil
}

func (r *shifts) List(_ context.Context, filter repository.ShiftFilter) ([]domain.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ShiftAssignment
	for _, shift := range r.shifts {
		if filter.PersonID != nil && shift.PersonID != *filter.PersonID {
			continue
		}
		if filter.From != nil && shift.Date.Before(domain.TruncateDate(*filter.From)) {
			continue
		}
		if filter.To != nil && shift.Date.After(domain.TruncateDate(*filter.To)) {
			continue
		}
		result = append(result, *shift)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].PersonID < result[j].PersonID
		}
		return result[i].Date.Before(result[j].Date)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *shifts) LatestBefore(_ context.Context, personIDs []string, before time.Time) (map[string]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]struct{}, len(personIDs))
	for _, id := range personIDs {
		wanted[id] = struct{}{}
	}
	cutoff := domain.TruncateDate(before)
	result := make(map[string]time.Time, len(personIDs))
	for _, shift := range r.shifts {
		if _, ok := wanted[shift.PersonID]; !ok || !shift.Date.Before(cutoff) {
			continue
		}
		if last, ok := result[shift.PersonID]; !ok || shift.Date.After(last) {
			result[shift.PersonID] = shift.Date
		}
	}
	return result, nil
}

func (r *shifts) UpdateDate(_ context.Context, id string, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	shift, ok := r.shifts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	newKey := key(shift.PersonID, date)
	if owner, exists := r.shiftIndex[newKey]; exists && owner != id {
		return repository.ErrDuplicateAssignment
	}
	delete(r.shiftIndex, key(shift.PersonID, shift.Date))
	shift.Date = domain.TruncateDate(date)
	shift.UpdatedAt = r.now()
	r.shiftIndex[newKey] = id
	return nil
}

type notifications Store

func (r *notifications) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = r.now()
	cp := *n
	r.notifications[n.ID] = &cp
	return nil
}

func (r *notifications) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *n
	return &cp, nil
}

func (r *notifications) ListByPerson(_ context.Context, personID string) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Notification
	for _, n := range r.notifications {
		if n.PersonID == personID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *notifications) ListPending(_ context.Context, limit int) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Notification
	for _, n := range r.notifications {
		if n.Status == domain.NotificationStatusPending {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *notifications) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return pgx.ErrNoRows
	}
	n.Status = domain.NotificationStatusSent
	n.SentAt = &sentAt
	return nil
}

func (r *notifications) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notifications[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.notifications, id)
	return nil
}
