package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/stopvol/internal/events"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/store"
	"github.com/example/stopvol/internal/worker"
)

type fakePushSender struct {
	mu       sync.Mutex
	tokens   []string
	bodies   []string
	err      error
	failures int
}

func (f *fakePushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("fcm unavailable")
	}
	if f.err != nil {
		return f.err
	}
	f.tokens = append(f.tokens, token)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakePushSender) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type notificationFixture struct {
	svc           *NotificationService
	notifications *store.MemoryNotificationStore
	declarations  *store.MemoryDeclarationStore
	users         *store.MemoryUserStore
	queue         *worker.Queue
	bus           *events.Bus
	declaration   *models.Declaration
	owner         *models.User
}

func newNotificationFixture(t *testing.T, sender *fakeSmsSender, push *fakePushSender) *notificationFixture {
	t.Helper()
	ctx := context.Background()

	notifications := store.NewMemoryNotificationStore()
	declarations := store.NewMemoryDeclarationStore()
	users := store.NewMemoryUserStore()
	bus := events.NewBus()
	queue := worker.NewQueue(32, worker.RetryPolicy{MaxAttempts: 3, Backoff: 5 * time.Millisecond}, zap.NewNop())

	owner := &models.User{
		Phone:         "+22670123456",
		Name:          "Aminata Ouedraogo",
		Role:          models.RoleCitizen,
		ProfileStatus: models.ProfileStatusValidated,
		FcmToken:      "device-token",
	}
	require.NoError(t, users.Create(ctx, owner))

	declaration := &models.Declaration{
		UserID:      owner.ID,
		PlateNumber: "AB-1234",
		Brand:       "Yamaha",
		Model:       "Crypton",
		Status:      models.StatusFound,
	}
	require.NoError(t, declarations.Create(ctx, declaration))

	svc := NewNotificationService(notifications, declarations, users,
		sender, push, queue, bus, "+226", zap.NewNop())

	return &notificationFixture{
		svc:           svc,
		notifications: notifications,
		declarations:  declarations,
		users:         users,
		queue:         queue,
		bus:           bus,
		declaration:   declaration,
		owner:         owner,
	}
}

func TestNotifyCreatesAndDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &fakeSmsSender{}
	push := &fakePushSender{}
	f := newNotificationFixture(t, sender, push)

	var (
		mu        sync.Mutex
		sentCount int
	)
	f.bus.Subscribe(func(event any) {
		if _, ok := event.(events.NotificationSent); ok {
			mu.Lock()
			sentCount++
			mu.Unlock()
		}
	})

	f.queue.Start(ctx, 2)

	created, err := f.svc.Notify(ctx, f.declaration.ID, &f.owner.ID,
		"Votre véhicule a été retrouvé", []string{models.ChannelSMS, models.ChannelApp})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, n := range created {
		require.True(t, n.IsPending(), "delivery is asynchronous")
	}

	require.Eventually(t, func() bool {
		pending, err := f.notifications.CountPending(ctx)
		return err == nil && pending == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, sender.sent())
	require.Contains(t, sender.messages[0], "retrouvé")
	require.Equal(t, "+22670123456", sender.phones[0])

	require.Equal(t, 1, push.sent())
	require.Equal(t, "device-token", push.tokens[0])

	mu.Lock()
	require.Equal(t, 2, sentCount)
	mu.Unlock()

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalSms)
	require.EqualValues(t, 1, stats.TotalApp)
	require.EqualValues(t, 0, stats.Pending)
}

func TestNotifyValidation(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t, &fakeSmsSender{}, &fakePushSender{})

	_, err := f.svc.Notify(ctx, f.declaration.ID, nil, "", []string{models.ChannelSMS})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Notify(ctx, f.declaration.ID, nil, "message", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Notify(ctx, f.declaration.ID, nil, "message", []string{"email"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Notify(ctx, uuid.New(), nil, "message", []string{models.ChannelSMS})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeliveryRetriesUntilSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &fakeSmsSender{}
	push := &fakePushSender{failures: 2}
	f := newNotificationFixture(t, sender, push)
	f.queue.Start(ctx, 1)

	_, err := f.svc.Notify(ctx, f.declaration.ID, nil, "message", []string{models.ChannelApp})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pending, err := f.notifications.CountPending(ctx)
		return err == nil && pending == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, push.sent())
}

func TestDeliveryPermanentFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &fakeSmsSender{err: errors.New("provider down")}
	f := newNotificationFixture(t, sender, &fakePushSender{})

	exhausted := make(chan struct{})
	f.queue.OnPermanentFailure = func(task worker.Task, err error) {
		f.svc.OnDeliveryFailure(task, err)
		close(exhausted)
	}
	f.queue.Start(ctx, 1)

	created, err := f.svc.Notify(ctx, f.declaration.ID, nil, "message", []string{models.ChannelSMS})
	require.NoError(t, err)

	select {
	case <-exhausted:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never exhausted its attempts")
	}

	stored, err := f.notifications.FindByID(ctx, created[0].ID)
	require.NoError(t, err)
	require.True(t, stored.IsPending(), "failed delivery must not be stamped sent")
}

func TestDeliverTerminalConditions(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSmsSender{}
	f := newNotificationFixture(t, sender, &fakePushSender{})

	// Vanished notification: nothing to retry.
	require.NoError(t, f.svc.deliver(ctx, uuid.New()))

	// Unknown channel: logged and dropped.
	odd := &models.Notification{DeclarationID: f.declaration.ID, Message: "m", Channel: "email"}
	require.NoError(t, f.notifications.Create(ctx, odd))
	require.NoError(t, f.svc.deliver(ctx, odd.ID))
	stored, err := f.notifications.FindByID(ctx, odd.ID)
	require.NoError(t, err)
	require.True(t, stored.IsPending())

	// Unresolvable recipient phone: logged and dropped, no send attempted.
	f.owner.Phone = "123"
	require.NoError(t, f.users.Update(ctx, f.owner))
	bad := &models.Notification{DeclarationID: f.declaration.ID, Message: "m", Channel: models.ChannelSMS}
	require.NoError(t, f.notifications.Create(ctx, bad))
	require.NoError(t, f.svc.deliver(ctx, bad.ID))
	require.Zero(t, sender.sent())
}

func TestDeliverSkipsAlreadySent(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSmsSender{}
	f := newNotificationFixture(t, sender, &fakePushSender{})

	n := &models.Notification{DeclarationID: f.declaration.ID, Message: "m", Channel: models.ChannelSMS}
	require.NoError(t, f.notifications.Create(ctx, n))
	ok, err := f.notifications.MarkSent(ctx, n.ID, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.svc.deliver(ctx, n.ID))
	require.Zero(t, sender.sent(), "sent notifications are not delivered twice")
}

func TestNotificationResendRules(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t, &fakeSmsSender{}, &fakePushSender{})

	n := &models.Notification{DeclarationID: f.declaration.ID, Message: "m", Channel: models.ChannelSMS}
	require.NoError(t, f.notifications.Create(ctx, n))

	// Pending notifications may always be requeued.
	require.NoError(t, f.svc.Resend(ctx, n))

	justSent := time.Now().Add(-10 * time.Minute)
	n.SentAt = &justSent
	require.NoError(t, f.notifications.Update(ctx, n))
	require.ErrorIs(t, f.svc.Resend(ctx, n), ErrInvalidState)

	longAgo := time.Now().Add(-2 * time.Hour)
	n.SentAt = &longAgo
	require.NoError(t, f.notifications.Update(ctx, n))
	require.NoError(t, f.svc.Resend(ctx, n))
	require.Nil(t, n.SentAt, "resend resets the delivery stamp")
}

func TestFindFailed(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t, &fakeSmsSender{}, &fakePushSender{})

	stale := &models.Notification{DeclarationID: f.declaration.ID, Message: "m", Channel: models.ChannelSMS}
	stale.CreatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, f.notifications.Create(ctx, stale))

	fresh := &models.Notification{DeclarationID: f.declaration.ID, Message: "m", Channel: models.ChannelSMS}
	require.NoError(t, f.notifications.Create(ctx, fresh))

	failed, err := f.svc.FindFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, stale.ID, failed[0].ID)
}

func TestDefaultMessages(t *testing.T) {
	declaration := &models.Declaration{
		PlateNumber: "AB-1234",
		Brand:       "Yamaha",
		Model:       "Crypton",
		Status:      models.StatusFound,
	}

	found := DefaultFoundMessage(declaration)
	require.Contains(t, found, "AB-1234")
	require.Contains(t, found, "Yamaha Crypton")
	require.Contains(t, found, "retrouvé")

	require.Contains(t, DefaultStatusUpdateMessage(declaration, models.StatusFound), "retrouvé")
	require.Contains(t, DefaultStatusUpdateMessage(declaration, models.StatusClosed), "clôturé")
	require.Contains(t, DefaultStatusUpdateMessage(declaration, models.StatusPending), "mis à jour")

	// Without a plate the chassis number identifies the vehicle.
	noPlate := &models.Declaration{ChassisNumber: "VF1ABC", Status: models.StatusFound}
	require.Contains(t, DefaultFoundMessage(noPlate), "VF1ABC")
}
