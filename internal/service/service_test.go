package service

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/oncall-service/internal/config"
	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/events"
	"github.com/spec-kit/oncall-service/internal/repository/memory"
	"github.com/spec-kit/oncall-service/internal/scheduler"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

type harness struct {
	store         *memory.Store
	dispatcher    events.Dispatcher
	notifications *NotificationService
	rotation      *RotationService
	published     []events.Event
}

func newHarness(t *testing.T, seedFromHistory bool) *harness {
	t.Helper()
	h := &harness{store: memory.NewStore(), dispatcher: events.NewInMemoryDispatcher()}
	for _, et := range []events.EventType{events.EventShiftAssigned, events.EventShiftRescheduled, events.EventNotificationQueued} {
		h.dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			h.published = append(h.published, e)
			return nil
		})
	}
	h.notifications = NewNotificationService(NotificationDependencies{
		Repo:       h.store.Notifications(),
		Dispatcher: h.dispatcher,
	})
	engine := scheduler.NewEngine(scheduler.Dependencies{
		Oracle:  h.store.Unavailability(),
		Ledger:  h.store.Workload(),
		Sink:    h.store.Shifts(),
		Emitter: h.notifications,
		Rand:    rand.New(rand.NewSource(42)),
	})
	h.rotation = NewRotationService(RotationDependencies{
		PersonRepo:      h.store.People(),
		ShiftRepo:       h.store.Shifts(),
		Engine:          engine,
		Notifier:        h.notifications,
		Dispatcher:      h.dispatcher,
		SeedFromHistory: seedFromHistory,
		MaxRangeDays:    31,
	})
	return h
}

func (h *harness) addPerson(t *testing.T, username string, role domain.PersonRole) *domain.Person {
	t.Helper()
	p := &domain.Person{Username: username, Name: username, Role: role, Active: true}
	require.NoError(t, h.store.People().Create(context.Background(), p))
	return p
}

func (h *harness) count(eventType events.EventType) int {
	n := 0
	for _, e := range h.published {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.ToDomainError(err).Code)
}

func TestRotationService_AssignRange(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.addPerson(t, "ana", domain.PersonRoleMember)
	h.addPerson(t, "bo", domain.PersonRoleMember)
	h.addPerson(t, "cy", domain.PersonRoleAdmin)

	result, err := h.rotation.AssignRange(ctx, "2024-01-01", "2024-01-07")
	require.NoError(t, err)
	require.Len(t, result.Days, 7)
	require.Equal(t, 7, result.Assigned)
	require.Equal(t, 0, result.Unassigned)
	require.Equal(t, 7, h.count(events.EventShiftAssigned))
	require.Equal(t, 7, h.count(events.EventNotificationQueued))

	pending, err := h.store.Notifications().ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 7)
	for _, n := range pending {
		require.Equal(t, domain.NotificationChannelEmail, n.Channel)
		require.True(t, strings.HasPrefix(n.Message, "You have been assigned an on-call shift on 2024-01-0"))
	}
}

func TestRotationService_AssignRangeErrors(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	_, err := h.rotation.AssignRange(ctx, "2024-13-01", "2024-01-02")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = h.rotation.AssignRange(ctx, "2024-01-01", "yesterday")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = h.rotation.AssignRange(ctx, "2024-01-02", "2024-01-01")
	requireCode(t, err, "INVALID_RANGE")

	_, err = h.rotation.AssignRange(ctx, "0001-01-01", "9999-12-31")
	requireCode(t, err, "VALIDATION_FAILED")
	require.EqualValues(t, 31, apperrors.ToDomainError(err).Details["max_days"])

	_, err = h.rotation.AssignRange(ctx, "2024-01-01", "2024-02-01")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = h.rotation.AssignRange(ctx, "2024-01-01", "2024-01-02")
	requireCode(t, err, "EMPTY_ROSTER")

	inactive := &domain.Person{Username: "gone", Role: domain.PersonRoleMember, Active: false}
	require.NoError(t, h.store.People().Create(ctx, inactive))
	_, err = h.rotation.AssignRange(ctx, "2024-01-01", "2024-01-02")
	requireCode(t, err, "EMPTY_ROSTER")
}

func TestRotationService_SeedsRestFromHistory(t *testing.T) {
	for _, seed := range []bool{true, false} {
		h := newHarness(t, seed)
		ctx := context.Background()
		ana := h.addPerson(t, "ana", domain.PersonRoleMember)

		_, err := h.rotation.AssignRange(ctx, "2024-01-01", "2024-01-01")
		require.NoError(t, err)

		result, err := h.rotation.AssignRange(ctx, "2024-01-02", "2024-01-02")
		require.NoError(t, err)
		if seed {
			require.Equal(t, 0, result.Assigned, "yesterday's shift must block today")
		} else {
			require.Equal(t, 1, result.Assigned)
			require.Equal(t, ana.ID, result.Days[0].Shift.PersonID)
		}
	}
}

func TestRotationService_RescheduleShift(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	admin := h.addPerson(t, "root", domain.PersonRoleAdmin)
	member := h.addPerson(t, "ana", domain.PersonRoleMember)

	first := &domain.ShiftAssignment{PersonID: member.ID, Date: mustDate(t, "2024-01-01"), StartTime: "15:00", EndTime: "09:00"}
	second := &domain.ShiftAssignment{PersonID: member.ID, Date: mustDate(t, "2024-01-03"), StartTime: "15:00", EndTime: "09:00"}
	require.NoError(t, h.store.Shifts().Create(ctx, first))
	require.NoError(t, h.store.Shifts().Create(ctx, second))

	_, err := h.rotation.RescheduleShift(ctx, member, first.ID, "2024-01-05")
	requireCode(t, err, "FORBIDDEN")

	_, err = h.rotation.RescheduleShift(ctx, admin, first.ID, "05/01/2024")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = h.rotation.RescheduleShift(ctx, admin, "missing", "2024-01-05")
	requireCode(t, err, "NOT_FOUND")

	_, err = h.rotation.RescheduleShift(ctx, admin, first.ID, "2024-01-03")
	requireCode(t, err, "DUPLICATE_ASSIGNMENT")

	moved, err := h.rotation.RescheduleShift(ctx, admin, first.ID, "2024-01-05")
	require.NoError(t, err)
	require.Equal(t, "2024-01-05", domain.FormatDate(moved.Date))
	require.Equal(t, 1, h.count(events.EventShiftRescheduled))

	inbox, err := h.notifications.ListForPerson(ctx, member)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, "Your shift has been moved to 2024-01-05.", inbox[0].Message)
	require.Equal(t, domain.NotificationChannelEmail, inbox[0].Channel)

	stat, err := h.store.Workload().Get(ctx, member.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stat.Total)
}

func TestRotationService_ListShifts(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.addPerson(t, "ana", domain.PersonRoleMember)
	h.addPerson(t, "bo", domain.PersonRoleMember)

	_, err := h.rotation.AssignRange(ctx, "2024-02-01", "2024-02-10")
	require.NoError(t, err)

	all, err := h.rotation.ListShifts(ctx, ShiftQuery{})
	require.NoError(t, err)
	require.Len(t, all, 10)

	window, err := h.rotation.ListShifts(ctx, ShiftQuery{From: "2024-02-03", To: "2024-02-04"})
	require.NoError(t, err)
	require.Len(t, window, 2)

	mine, err := h.rotation.ListShifts(ctx, ShiftQuery{PersonID: all[0].PersonID})
	require.NoError(t, err)
	for _, s := range mine {
		require.Equal(t, all[0].PersonID, s.PersonID)
	}

	_, err = h.rotation.ListShifts(ctx, ShiftQuery{From: "2024-02-05", To: "2024-02-01"})
	requireCode(t, err, "INVALID_RANGE")
	_, err = h.rotation.ListShifts(ctx, ShiftQuery{From: "feb"})
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestNotificationService(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	ana := h.addPerson(t, "ana", domain.PersonRoleMember)
	bo := h.addPerson(t, "bo", domain.PersonRoleMember)

	_, err := h.notifications.Emit(ctx, ana.ID, "hello", domain.NotificationChannel("sms"))
	requireCode(t, err, "VALIDATION_FAILED")

	n, err := h.notifications.Emit(ctx, ana.ID, "hello", domain.NotificationChannelPush)
	require.NoError(t, err)
	require.Equal(t, domain.NotificationStatusPending, n.Status)
	require.Equal(t, 1, h.count(events.EventNotificationQueued))

	_, err = h.notifications.MarkSent(ctx, bo, n.ID)
	requireCode(t, err, "NOT_FOUND")

	sent, err := h.notifications.MarkSent(ctx, ana, n.ID)
	require.NoError(t, err)
	require.Equal(t, domain.NotificationStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	again, err := h.notifications.MarkSent(ctx, ana, n.ID)
	require.NoError(t, err)
	require.Equal(t, *sent.SentAt, *again.SentAt)

	requireCode(t, h.notifications.Delete(ctx, bo, n.ID), "NOT_FOUND")
	require.NoError(t, h.notifications.Delete(ctx, ana, n.ID))
	requireCode(t, h.notifications.Delete(ctx, ana, n.ID), "NOT_FOUND")

	inbox, err := h.notifications.ListForPerson(ctx, ana)
	require.NoError(t, err)
	require.Empty(t, inbox)
}

func TestStatisticsService(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	ana := h.addPerson(t, "ana", domain.PersonRoleMember)
	bo := h.addPerson(t, "bo", domain.PersonRoleMember)
	stats := NewStatisticsService(h.store.Workload(), h.store.People())

	_, err := h.store.Workload().IncrementForDate(ctx, ana.ID, mustDate(t, "2024-01-06"))
	require.NoError(t, err)

	mine, err := stats.ForPerson(ctx, ana)
	require.NoError(t, err)
	require.Equal(t, 1, mine.Total)
	require.Equal(t, 1, mine.ForWeekday(5))

	fresh, err := stats.ForPerson(ctx, bo)
	require.NoError(t, err)
	require.Equal(t, 0, fresh.Total)

	all, err := stats.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, s := range all {
		require.NoError(t, s.Validate())
	}
}

func TestUnavailabilityService(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	ana := h.addPerson(t, "ana", domain.PersonRoleMember)
	svc := NewUnavailabilityService(h.store.Unavailability())

	_, err := svc.Create(ctx, ana, "2024-03-05")
	require.NoError(t, err)
	_, err = svc.Create(ctx, ana, "2024-04-01")
	require.NoError(t, err)

	_, err = svc.Create(ctx, ana, "2024-03-05")
	requireCode(t, err, "CONFLICT")
	_, err = svc.Create(ctx, ana, "tomorrow")
	requireCode(t, err, "VALIDATION_FAILED")

	march, err := svc.List(ctx, ana, 2024, 3)
	require.NoError(t, err)
	require.Len(t, march, 1)

	all, err := svc.List(ctx, ana, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.List(ctx, ana, 2024, 0)
	requireCode(t, err, "VALIDATION_FAILED")

	require.NoError(t, svc.Delete(ctx, ana, "2024-03-05"))
	requireCode(t, svc.Delete(ctx, ana, "2024-03-05"), "NOT_FOUND")

	// excluded dates keep the person out of the run
	_, err = h.rotation.AssignRange(ctx, "2024-04-01", "2024-04-01")
	require.NoError(t, err)
	shifts, err := h.rotation.ListShifts(ctx, ShiftQuery{})
	require.NoError(t, err)
	require.Empty(t, shifts)
}

func TestAuthService(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 10, BcryptCost: 4}, store.People())

	admin := &domain.Person{ID: "admin", Username: "root", Role: domain.PersonRoleAdmin, Active: true}
	member := &domain.Person{Username: "ana", Name: "Ana"}

	require.Error(t, svc.Register(ctx, member, &domain.Person{Username: "x"}, "pw"))
	require.NoError(t, svc.Register(ctx, admin, member, "pw-ana"))
	require.Equal(t, domain.PersonRoleMember, member.Role)
	requireCode(t, svc.Register(ctx, admin, &domain.Person{Username: "ana"}, "pw"), "CONFLICT")

	person, raw, meta, err := svc.Login(ctx, "ana", "pw-ana")
	require.NoError(t, err)
	require.Equal(t, member.ID, person.ID)
	require.Equal(t, member.ID, meta.SubjectID)

	claims, err := svc.TokenManager().ParseToken(raw)
	require.NoError(t, err)
	require.Equal(t, member.ID, claims.Subject)

	_, _, _, err = svc.Login(ctx, "ana", "wrong")
	requireCode(t, err, "UNAUTHORIZED")
	_, _, _, err = svc.Login(ctx, "nobody", "pw")
	requireCode(t, err, "UNAUTHORIZED")
}

func TestAuthService_ChangePassword(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 10, BcryptCost: 4}, store.People())

	admin := &domain.Person{ID: "admin", Username: "root", Role: domain.PersonRoleAdmin, Active: true}
	ana := &domain.Person{Username: "ana", Name: "Ana"}
	require.NoError(t, svc.Register(ctx, admin, ana, "pw-ana-1"))

	requireCode(t, svc.ChangePassword(ctx, ana, "wrong", "pw-ana-2"), "UNAUTHORIZED")
	require.NoError(t, svc.ChangePassword(ctx, ana, "pw-ana-1", "pw-ana-2"))

	_, _, _, err := svc.Login(ctx, "ana", "pw-ana-1")
	requireCode(t, err, "UNAUTHORIZED")
	_, _, _, err = svc.Login(ctx, "ana", "pw-ana-2")
	require.NoError(t, err)

	requireCode(t, svc.ChangePassword(ctx, &domain.Person{ID: "ghost"}, "x", "y"), "NOT_FOUND")
}

func TestAuthService_UpdateAndDeactivate(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 10, BcryptCost: 4}, store.People())

	admin := &domain.Person{Username: "root", Role: domain.PersonRoleAdmin, Active: true}
	require.NoError(t, store.People().Create(ctx, admin))
	ana := &domain.Person{Username: "ana", Name: "Ana"}
	require.NoError(t, svc.Register(ctx, admin, ana, "pw-ana"))

	name := "Ana Lima"
	role := domain.PersonRoleAdmin
	_, err := svc.UpdatePerson(ctx, ana, ana.ID, PersonUpdate{Name: &name})
	requireCode(t, err, "FORBIDDEN")

	updated, err := svc.UpdatePerson(ctx, admin, ana.ID, PersonUpdate{Name: &name, Role: &role})
	require.NoError(t, err)
	require.Equal(t, "Ana Lima", updated.Name)
	require.True(t, updated.IsAdmin())
	require.True(t, updated.Active)

	_, err = svc.UpdatePerson(ctx, admin, "missing", PersonUpdate{Name: &name})
	requireCode(t, err, "NOT_FOUND")

	requireCode(t, svc.Deactivate(ctx, admin, admin.ID), "VALIDATION_FAILED")
	require.NoError(t, svc.Deactivate(ctx, admin, ana.ID))

	roster, err := svc.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, admin.ID, roster[0].ID)

	_, _, _, err = svc.Login(ctx, "ana", "pw-ana")
	requireCode(t, err, "UNAUTHORIZED")
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", BcryptCost: 4}, store.People())

	created, err := svc.EnsureAdmin(ctx, "", "")
	require.NoError(t, err)
	require.False(t, created)

	created, err = svc.EnsureAdmin(ctx, "root", "bootstrap")
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "root", "bootstrap")
	require.NoError(t, err)
	require.False(t, created)

	person, _, _, err := svc.Login(ctx, "root", "bootstrap")
	require.NoError(t, err)
	require.True(t, person.IsAdmin())
}
