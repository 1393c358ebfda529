package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/oncall-service/internal/config"
	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/events"
	"github.com/spec-kit/oncall-service/internal/observability"
	"github.com/spec-kit/oncall-service/internal/repository/memory"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (r *recordingSender) Send(_ context.Context, recipient *domain.Person, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, recipient.Username+":"+n.Message)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func seed(t *testing.T, store *memory.Store) *domain.Person {
	t.Helper()
	ctx := context.Background()
	ana := &domain.Person{Username: "ana", Email: "ana@example.com", Active: true}
	require.NoError(t, store.People().Create(ctx, ana))
	for _, n := range []domain.Notification{
		{PersonID: ana.ID, Message: "one", Channel: domain.NotificationChannelEmail, Status: domain.NotificationStatusPending},
		{PersonID: ana.ID, Message: "two", Channel: domain.NotificationChannelPush, Status: domain.NotificationStatusPending},
	} {
		n := n
		require.NoError(t, store.Notifications().Create(ctx, &n))
	}
	return ana
}

func TestDeliverPending(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	email := &recordingSender{}
	push := &recordingSender{fail: errors.New("push gateway down")}
	metrics := observability.NewMetrics("test")

	w := NewDeliveryWorker(DeliveryDependencies{
		Notifications: store.Notifications(),
		People:        store.People(),
		Senders: map[domain.NotificationChannel]Sender{
			domain.NotificationChannelEmail: email,
			domain.NotificationChannelPush:  push,
		},
		Metrics: metrics,
	})

	delivered, err := w.DeliverPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
	require.Equal(t, []string{"ana:one"}, email.sent)

	pending, err := store.Notifications().ListPending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "two", pending[0].Message)

	push.fail = nil
	delivered, err = w.DeliverPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	pending, err = store.Notifications().ListPending(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, pending)

	series, err := testutil.GatherAndCount(metrics.Registry(), "test_notifications_total")
	require.NoError(t, err)
	require.Equal(t, 3, series, "email/sent, push/failed and push/sent")
}

func TestRunDeliversOnNudge(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	sender := &recordingSender{}
	dispatcher := events.NewInMemoryDispatcher()

	w := NewDeliveryWorker(DeliveryDependencies{
		Notifications: store.Notifications(),
		People:        store.People(),
		Senders: map[domain.NotificationChannel]Sender{
			domain.NotificationChannelEmail: sender,
			domain.NotificationChannelPush:  sender,
		},
		Interval: time.Hour,
		Logger:   zap.NewNop(),
	})
	w.Subscribe(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventNotificationQueued}))
	require.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

type fakeDialer struct {
	messages []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return nil
}

func TestEmailSender(t *testing.T) {
	dialer := &fakeDialer{}
	s := &EmailSender{dialer: dialer, from: "oncall@example.com"}

	err := s.Send(context.Background(), &domain.Person{ID: "p1"}, domain.Notification{Message: "hi"})
	require.ErrorIs(t, err, ErrNoAddress)

	require.NoError(t, s.Send(context.Background(), &domain.Person{ID: "p1", Name: "Ana", Email: "ana@example.com"}, domain.Notification{Message: "hi"}))
	require.Len(t, dialer.messages, 1)
	require.Equal(t, []string{"oncall@example.com"}, dialer.messages[0].GetHeader("From"))
}

func TestNewSenders(t *testing.T) {
	logOnly := NewSenders(config.NotificationConfig{}, zap.NewNop())
	_, isEmail := logOnly[domain.NotificationChannelEmail].(*EmailSender)
	require.False(t, isEmail)

	smtp := NewSenders(config.NotificationConfig{SMTPHost: "localhost", SMTPPort: 25}, zap.NewNop())
	_, isEmail = smtp[domain.NotificationChannelEmail].(*EmailSender)
	require.True(t, isEmail)
	require.NotNil(t, smtp[domain.NotificationChannelPush])
}
