package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/repository"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestShiftsRejectDuplicates(t *testing.T) {
	ctx := context.Background()
	shifts := NewStore().Shifts()

	first := &domain.ShiftAssignment{PersonID: "p1", Date: day(t, "2024-01-01"), StartTime: "15:00", EndTime: "09:00"}
	require.NoError(t, shifts.Create(ctx, first))
	require.NotEmpty(t, first.ID)

	dup := &domain.ShiftAssignment{PersonID: "p1", Date: day(t, "2024-01-01"), StartTime: "15:00", EndTime: "09:00"}
	require.ErrorIs(t, shifts.Create(ctx, dup), repository.ErrDuplicateAssignment)

	other := &domain.ShiftAssignment{PersonID: "p2", Date: day(t, "2024-01-01")}
	require.NoError(t, shifts.Create(ctx, other))

	t.Run("update date moves the uniqueness key", func(t *testing.T) {
		require.NoError(t, shifts.UpdateDate(ctx, first.ID, day(t, "2024-01-05")))
		require.NoError(t, shifts.Create(ctx, &domain.ShiftAssignment{PersonID: "p1", Date: day(t, "2024-01-01")}))

		err := shifts.UpdateDate(ctx, first.ID, day(t, "2024-01-01"))
		require.ErrorIs(t, err, repository.ErrDuplicateAssignment)
	})

	t.Run("latest before", func(t *testing.T) {
		latest, err := shifts.LatestBefore(ctx, []string{"p1", "p2", "p3"}, day(t, "2024-01-05"))
		require.NoError(t, err)
		require.Equal(t, day(t, "2024-01-01"), latest["p1"])
		require.Equal(t, day(t, "2024-01-01"), latest["p2"])
		_, ok := latest["p3"]
		require.False(t, ok)
	})

	t.Run("list filters by person and range", func(t *testing.T) {
		pid := "p1"
		from := day(t, "2024-01-02")
		list, err := shifts.List(ctx, repository.ShiftFilter{PersonID: &pid, From: &from})
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, first.ID, list[0].ID)
	})
}

func TestWorkloadIncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	ledger := NewStore().Workload()
	monday := day(t, "2024-01-01")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			_, err := ledger.IncrementForDate(ctx, "p1", monday.AddDate(0, 0, offset%7))
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stat, err := ledger.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 50, stat.Total)
	require.NoError(t, stat.Validate())

	absent, err := ledger.Get(ctx, "nobody")
	require.NoError(t, err)
	require.Equal(t, 0, absent.Total)
}

func TestUnavailability(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Unavailability()
	d := day(t, "2024-02-10")

	require.NoError(t, repo.Create(ctx, &domain.Unavailability{PersonID: "p1", Date: d}))
	require.ErrorIs(t, repo.Create(ctx, &domain.Unavailability{PersonID: "p1", Date: d}), repository.ErrDuplicateUnavailability)

	excluded, err := repo.IsExcluded(ctx, "p1", d)
	require.NoError(t, err)
	require.True(t, excluded)

	list, err := repo.ListByPerson(ctx, "p1", repository.UnavailabilityFilter{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Empty(t, list)

	removed, err := repo.Delete(ctx, "p1", d)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Delete(ctx, "p1", d)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestNotificationsPendingQueue(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Notifications()

	n := &domain.Notification{PersonID: "p1", Message: "hi", Channel: domain.NotificationChannelEmail, Status: domain.NotificationStatusPending}
	require.NoError(t, repo.Create(ctx, n))

	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkSent(ctx, n.ID, time.Now()))
	pending, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	require.NoError(t, repo.Delete(ctx, n.ID))
	require.Error(t, repo.Delete(ctx, n.ID))
}

func TestPeopleUpdate(t *testing.T) {
	ctx := context.Background()
	people := NewStore().People()

	ana := &domain.Person{Username: "ana", Name: "Ana", Role: domain.PersonRoleMember, Active: true}
	require.NoError(t, people.Create(ctx, ana))

	ana.Name = "Ana B"
	ana.Active = false
	require.NoError(t, people.Update(ctx, ana))

	got, err := people.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana B", got.Name)
	require.False(t, got.Active)

	active, err := people.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	require.ErrorIs(t, people.Update(ctx, &domain.Person{ID: "missing"}), pgx.ErrNoRows)
}
