package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/stopvol/internal/events"
	"github.com/example/stopvol/internal/metrics"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/sms"
	"github.com/example/stopvol/internal/store"
	"github.com/example/stopvol/internal/worker"
)

// failedAfter is how long a notification may stay pending before it is
// treated as presumptively failed, and how soon a sent notification may be
// resent.
const failedAfter = time.Hour

const pushTitle = "StopVol - Mise à jour"

// PushSender sends an in-app notification to a device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// NotificationService creates notification records per channel and hands them
// to the asynchronous delivery queue. Callers never block on delivery.
type NotificationService struct {
	notifications store.NotificationStore
	declarations  store.DeclarationStore
	users         store.UserStore
	sender        sms.Sender
	push          PushSender
	queue         *worker.Queue
	bus           *events.Bus
	countryCode   string
	log           *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(
	notifications store.NotificationStore,
	declarations store.DeclarationStore,
	users store.UserStore,
	sender sms.Sender,
	push PushSender,
	queue *worker.Queue,
	bus *events.Bus,
	countryCode string,
	log *zap.Logger,
) *NotificationService {
	if countryCode == "" {
		countryCode = sms.DefaultCountryCode
	}
	return &NotificationService{
		notifications: notifications,
		declarations:  declarations,
		users:         users,
		sender:        sender,
		push:          push,
		queue:         queue,
		bus:           bus,
		countryCode:   countryCode,
		log:           log,
	}
}

// Notify creates one pending notification per requested channel and enqueues
// their delivery tasks. The created records are returned immediately.
func (s *NotificationService) Notify(ctx context.Context, declarationID uuid.UUID, adminID *uuid.UUID, message string, channels []string) ([]*models.Notification, error) {
	if message == "" {
		return nil, validationError("message cannot be empty")
	}
	if len(channels) == 0 {
		return nil, validationError("at least one channel is required")
	}
	for _, channel := range channels {
		if !models.IsValidChannel(channel) {
			return nil, validationError("unknown channel: %s", channel)
		}
	}

	if _, err := s.declarations.FindByID(ctx, declarationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: declaration %s", ErrNotFound, declarationID)
		}
		return nil, err
	}

	notifications := make([]*models.Notification, 0, len(channels))
	for _, channel := range channels {
		notification := &models.Notification{
			DeclarationID: declarationID,
			AdminID:       adminID,
			Message:       message,
			Channel:       channel,
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
		s.queue.Enqueue(&deliveryTask{service: s, notificationID: notification.ID})
	}
	return notifications, nil
}

// Resend re-enqueues a notification. Allowed while the notification is
// pending or once more than an hour has passed since delivery.
func (s *NotificationService) Resend(ctx context.Context, notification *models.Notification) error {
	if !notification.CanBeResent() {
		return invalidStateError("notification cannot be resent at this time")
	}

	notification.SentAt = nil
	if err := s.notifications.Update(ctx, notification); err != nil {
		return err
	}
	s.queue.Enqueue(&deliveryTask{service: s, notificationID: notification.ID})
	return nil
}

// FindFailed returns notifications still pending after the failure cutoff.
// This is a reporting heuristic, not a distinct state.
func (s *NotificationService) FindFailed(ctx context.Context) ([]models.Notification, error) {
	return s.notifications.FindPendingOlderThan(ctx, failedAfter)
}

// ByDeclaration lists a declaration's notifications, newest first.
func (s *NotificationService) ByDeclaration(ctx context.Context, declarationID uuid.UUID) ([]models.Notification, error) {
	return s.notifications.FindByDeclaration(ctx, declarationID)
}

// NotificationStats summarizes notification volumes.
type NotificationStats struct {
	TotalSms int64 `json:"total_sms"`
	TotalApp int64 `json:"total_app"`
	Pending  int64 `json:"pending"`
}

// Stats reports notification volumes per channel and the pending backlog.
func (s *NotificationService) Stats(ctx context.Context) (*NotificationStats, error) {
	totalSms, err := s.notifications.CountByChannel(ctx, models.ChannelSMS)
	if err != nil {
		return nil, err
	}
	totalApp, err := s.notifications.CountByChannel(ctx, models.ChannelApp)
	if err != nil {
		return nil, err
	}
	pending, err := s.notifications.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	return &NotificationStats{TotalSms: totalSms, TotalApp: totalApp, Pending: pending}, nil
}

// DefaultFoundMessage is the owner-facing message for a recovered vehicle.
func DefaultFoundMessage(declaration *models.Declaration) string {
	vehicleInfo := ""
	if declaration.Brand != "" && declaration.Model != "" {
		vehicleInfo = fmt.Sprintf(" (%s %s)", declaration.Brand, declaration.Model)
	}
	return fmt.Sprintf(
		"Bonne nouvelle ! Votre véhicule %s%s déclaré volé a été retrouvé. Veuillez contacter les autorités pour plus d'informations.",
		declaration.DefaultIdentifier(), vehicleInfo)
}

// DefaultStatusUpdateMessage is the owner-facing message for a status change.
func DefaultStatusUpdateMessage(declaration *models.Declaration, status string) string {
	identifier := declaration.DefaultIdentifier()
	switch status {
	case models.StatusFound:
		return fmt.Sprintf("Votre véhicule %s a été retrouvé. Contactez les autorités.", identifier)
	case models.StatusClosed:
		return fmt.Sprintf("Le dossier de vol de votre véhicule %s a été clôturé.", identifier)
	default:
		return fmt.Sprintf("Le statut de votre déclaration de vol pour %s a été mis à jour.", identifier)
	}
}

// deliver executes one delivery attempt for a notification. A send failure
// returns an error so the task runner retries; unknown records and missing
// recipients are terminal and succeed silently after logging.
func (s *NotificationService) deliver(ctx context.Context, notificationID uuid.UUID) error {
	notification, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Error("notification disappeared before delivery",
				zap.String("notification_id", notificationID.String()))
			return nil
		}
		return err
	}
	if notification.IsSent() {
		return nil
	}

	declaration, err := s.declarations.FindByID(ctx, notification.DeclarationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Error("declaration not found for notification",
				zap.String("notification_id", notification.ID.String()),
				zap.String("declaration_id", notification.DeclarationID.String()))
			return nil
		}
		return err
	}

	user, err := s.users.FindByID(ctx, declaration.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Error("user not found for notification",
				zap.String("notification_id", notification.ID.String()),
				zap.String("user_id", declaration.UserID.String()))
			return nil
		}
		return err
	}

	switch notification.Channel {
	case models.ChannelSMS:
		phone := sms.FormatPhoneNumber(user.Phone, s.countryCode)
		if !sms.ValidatePhoneNumber(phone) {
			s.log.Error("invalid phone number for sms notification",
				zap.String("notification_id", notification.ID.String()),
				zap.String("phone", phone))
			return nil
		}
		if err := s.sender.Send(ctx, phone, notification.Message); err != nil {
			return fmt.Errorf("sms delivery: %w", err)
		}
	case models.ChannelApp:
		data := map[string]string{
			"notification_id": notification.ID.String(),
			"declaration_id":  notification.DeclarationID.String(),
			"type":            "declaration_update",
		}
		if err := s.push.Send(ctx, user.FcmToken, pushTitle, notification.Message, data); err != nil {
			return fmt.Errorf("push delivery: %w", err)
		}
	default:
		s.log.Error("notification has unknown channel",
			zap.String("notification_id", notification.ID.String()),
			zap.String("channel", notification.Channel))
		return nil
	}

	return s.markSent(ctx, notification)
}

// markSent stamps the delivery time and publishes NotificationSent. The stamp
// is a compare-and-set, so a concurrent duplicate delivery publishes nothing.
func (s *NotificationService) markSent(ctx context.Context, notification *models.Notification) error {
	now := time.Now()
	stamped, err := s.notifications.MarkSent(ctx, notification.ID, now)
	if err != nil {
		return err
	}
	if !stamped {
		return nil
	}

	notification.SentAt = &now
	metrics.NotificationsSent.WithLabelValues(notification.Channel).Inc()
	s.bus.Publish(events.NotificationSent{Notification: notification})
	s.log.Info("notification delivered",
		zap.String("notification_id", notification.ID.String()),
		zap.String("channel", notification.Channel))
	return nil
}

// deliveryTask adapts a notification delivery to the worker queue.
type deliveryTask struct {
	service        *NotificationService
	notificationID uuid.UUID
}

func (t *deliveryTask) Name() string {
	return "notification:" + t.notificationID.String()
}

func (t *deliveryTask) Execute(ctx context.Context) error {
	return t.service.deliver(ctx, t.notificationID)
}

// OnDeliveryFailure is the permanent-failure hook wired into the worker
// queue: it counts and logs exhausted deliveries. No dead-letter requeue
// happens beyond this.
func (s *NotificationService) OnDeliveryFailure(task worker.Task, err error) {
	metrics.DeliveryFailures.Inc()
	s.log.Error("notification delivery failed permanently",
		zap.String("task", task.Name()),
		zap.Error(err))
}
