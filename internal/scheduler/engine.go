// Package scheduler allocates one on-call shift per day across a roster,
// balancing per-weekday load with randomized tie-breaking.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/lock"
	"github.com/spec-kit/oncall-service/internal/observability"
	"github.com/spec-kit/oncall-service/internal/repository"
)

// settleTimeout bounds the ledger and notification writes that follow a
// stored shift. They run detached from the caller's context.
const settleTimeout = 10 * time.Second

var (
	// ErrInvalidRange is returned when the end date precedes the start date.
	ErrInvalidRange = errors.New("end date before start date")
	// ErrEmptyRoster is returned when there is nobody to schedule.
	ErrEmptyRoster = errors.New("roster is empty")
)

// AvailabilityOracle answers whether a person is excluded on a date.
type AvailabilityOracle interface {
	IsExcluded(ctx context.Context, personID string, date time.Time) (bool, error)
}

// WorkloadLedger reads and increments per-person workload.
type WorkloadLedger interface {
	Get(ctx context.Context, personID string) (domain.WorkloadStatistic, error)
	IncrementForDate(ctx context.Context, personID string, date time.Time) (domain.WorkloadStatistic, error)
}

// AssignmentSink durably records shifts and rejects (person, date) duplicates
// with repository.ErrDuplicateAssignment.
type AssignmentSink interface {
	Create(ctx context.Context, shift *domain.ShiftAssignment) error
}

// NotificationEmitter queues a pending notification for a person.
type NotificationEmitter interface {
	Emit(ctx context.Context, personID, message string, channel domain.NotificationChannel) (*domain.Notification, error)
}

// Shuffler permutes n elements. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// DayResult is the decision for one date. Shift is nil when nobody was assigned.
type DayResult struct {
	Date  time.Time
	Shift *domain.ShiftAssignment
}

// Assigned reports whether the day got a shift.
func (r DayResult) Assigned() bool {
	return r.Shift != nil
}

// Dependencies bundles the collaborators of the engine.
type Dependencies struct {
	Oracle   AvailabilityOracle
	Ledger   WorkloadLedger
	Sink     AssignmentSink
	Emitter  NotificationEmitter
	Locker   lock.PersonLocker
	Rand     Shuffler
	Template domain.ShiftTemplate
	Channel  domain.NotificationChannel
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// Engine runs the greedy forward pass over a date range.
type Engine struct {
	oracle   AvailabilityOracle
	ledger   WorkloadLedger
	sink     AssignmentSink
	emitter  NotificationEmitter
	locker   lock.PersonLocker
	template domain.ShiftTemplate
	channel  domain.NotificationChannel
	logger   *zap.Logger
	metrics  *observability.Metrics

	randMu sync.Mutex
	rand   Shuffler
}

// NewEngine creates the engine, filling unset optional dependencies.
func NewEngine(deps Dependencies) *Engine {
	e := &Engine{
		oracle:   deps.Oracle,
		ledger:   deps.Ledger,
		sink:     deps.Sink,
		emitter:  deps.Emitter,
		locker:   deps.Locker,
		rand:     deps.Rand,
		template: deps.Template,
		channel:  deps.Channel,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
	if e.locker == nil {
		e.locker = lock.NewLocalLocker()
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.template.Start == "" || e.template.End == "" {
		e.template = domain.DefaultShiftTemplate
	}
	if e.channel == "" {
		e.channel = domain.NotificationChannelEmail
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

type candidate struct {
	person domain.Person
	load   int
}

// Assign walks start..end inclusive and makes at most one assignment per day.
// state carries rest tracking; nil starts empty. On cancellation the days
// already decided are returned along with ctx.Err().
func (e *Engine) Assign(ctx context.Context, start, end time.Time, roster []domain.Person, state *RunState) ([]DayResult, error) {
	start, end = domain.TruncateDate(start), domain.TruncateDate(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if state == nil {
		state = NewRunState()
	}

	began := time.Now()
	defer func() { e.metrics.ObserveRun(time.Since(began)) }()

	results := make([]DayResult, 0, domain.DaysBetween(start, end)+1)
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		shift, err := e.assignDay(ctx, date, roster, state)
		if err != nil {
			return results, err
		}
		results = append(results, DayResult{Date: date, Shift: shift})
		if shift != nil {
			e.metrics.RecordDay(observability.OutcomeAssigned)
		} else {
			e.metrics.RecordDay(observability.OutcomeUnassigned)
		}
	}
	return results, nil
}

func (e *Engine) assignDay(ctx context.Context, date time.Time, roster []domain.Person, state *RunState) (*domain.ShiftAssignment, error) {
	pool := e.candidates(ctx, date, roster)
	if len(pool) == 0 {
		e.logger.Debug("no available candidates", zap.String("date", domain.FormatDate(date)))
		return nil, nil
	}

	e.randMu.Lock()
	e.rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	e.randMu.Unlock()
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].load < pool[j].load })

	for _, c := range pool {
		if !state.Rested(c.person.ID, date) {
			continue
		}
		shift, err := e.commit(ctx, c.person.ID, date)
		switch {
		case err == nil:
			state.Record(c.person.ID, date)
			e.notify(context.WithoutCancel(ctx), c.person.ID, date)
			return shift, nil
		case errors.Is(err, repository.ErrDuplicateAssignment):
			e.metrics.RecordDuplicate()
			e.logger.Info("shift already taken, trying next candidate",
				zap.String("person_id", c.person.ID), zap.String("date", domain.FormatDate(date)))
			continue
		case errors.Is(err, domain.ErrLedgerInvariant):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			e.logger.Warn("leaving day unassigned",
				zap.String("person_id", c.person.ID), zap.String("date", domain.FormatDate(date)), zap.Error(err))
			return nil, nil
		}
	}
	return nil, nil
}

// candidates returns available roster members with their weekday load.
func (e *Engine) candidates(ctx context.Context, date time.Time, roster []domain.Person) []candidate {
	weekday := domain.WeekdayIndex(date)
	pool := make([]candidate, 0, len(roster))
	for _, person := range roster {
		excluded, err := e.oracle.IsExcluded(ctx, person.ID, date)
		if err != nil {
			e.logger.Warn("availability check failed, treating as excluded",
				zap.String("person_id", person.ID), zap.String("date", domain.FormatDate(date)), zap.Error(err))
			continue
		}
		if excluded {
			continue
		}
		stat, err := e.ledger.Get(ctx, person.ID)
		if err != nil {
			e.logger.Warn("workload read failed, skipping candidate",
				zap.String("person_id", person.ID), zap.Error(err))
			continue
		}
		pool = append(pool, candidate{person: person, load: stat.ForWeekday(weekday)})
	}
	return pool
}

// commit stores the shift and bumps the ledger under the person's lock.
// The ledger is only touched once the sink accepted the shift, and from then
// on cancellation of ctx no longer applies.
func (e *Engine) commit(ctx context.Context, personID string, date time.Time) (*domain.ShiftAssignment, error) {
	unlock, err := e.locker.Lock(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("lock person %s: %w", personID, err)
	}
	defer unlock()

	shift := &domain.ShiftAssignment{
		PersonID:  personID,
		Date:      date,
		StartTime: e.template.Start,
		EndTime:   e.template.End,
	}
	if err := e.sink.Create(ctx, shift); err != nil {
		return nil, err
	}

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	stat, err := e.ledger.IncrementForDate(settleCtx, personID, date)
	if err != nil {
		e.metrics.RecordLedgerFailure()
		e.logger.Error("workload increment failed after shift was stored",
			zap.String("person_id", personID), zap.String("date", domain.FormatDate(date)), zap.Error(err))
		return shift, nil
	}
	if err := stat.Validate(); err != nil {
		e.logger.Error("workload ledger invariant broken", zap.String("person_id", personID), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func (e *Engine) notify(ctx context.Context, personID string, date time.Time) {
	if e.emitter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	message := fmt.Sprintf("You have been assigned an on-call shift on %s.", domain.FormatDate(date))
	if _, err := e.emitter.Emit(ctx, personID, message, e.channel); err != nil {
		e.logger.Warn("queue assignment notification", zap.String("person_id", personID), zap.Error(err))
	}
}
