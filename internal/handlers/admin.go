package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/stopvol/internal/middleware"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/services"
	"github.com/example/stopvol/internal/store"
	"github.com/example/stopvol/internal/utils"
)

// AdminHandler bundles dependencies for entity-admin endpoints.
type AdminHandler struct {
	declarations  *services.DeclarationService
	notifications *services.NotificationService
	users         *services.UserService
	declStore     store.DeclarationStore
	userStore     store.UserStore
	notifStore    store.NotificationStore
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(
	declarations *services.DeclarationService,
	notifications *services.NotificationService,
	users *services.UserService,
	declStore store.DeclarationStore,
	userStore store.UserStore,
	notifStore store.NotificationStore,
) *AdminHandler {
	return &AdminHandler{
		declarations:  declarations,
		notifications: notifications,
		users:         users,
		declStore:     declStore,
		userStore:     userStore,
		notifStore:    notifStore,
	}
}

// Dashboard reports declaration counts per status and notification volumes.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	counts := fiber.Map{}
	for _, status := range []string{models.StatusPending, models.StatusFound, models.StatusClosed} {
		count, err := h.declStore.CountByStatus(c.Context(), status)
		if err != nil {
			return err
		}
		counts[status] = count
	}

	notificationStats, err := h.notifications.Stats(c.Context())
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"declarations":  counts,
		"notifications": notificationStats,
	})
}

// Declarations lists declarations page by page, newest first. A status query
// narrows the listing to pending or found declarations.
func (h *AdminHandler) Declarations(c *fiber.Ctx) error {
	switch status := c.Query("status"); status {
	case "":
	case models.StatusPending:
		declarations, err := h.declarations.PendingDeclarations(c.Context())
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"declarations": declarations})
	case models.StatusFound:
		declarations, err := h.declarations.FoundDeclarations(c.Context())
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"declarations": declarations})
	case models.StatusClosed:
		declarations, err := h.declStore.FindByStatus(c.Context(), models.StatusClosed)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"declarations": declarations})
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown status filter: "+status)
	}

	pagination := utils.ParsePagination(c)
	declarations, err := h.declStore.List(c.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"declarations": declarations,
		"page":         pagination.Page,
		"limit":        pagination.Limit,
	})
}

// Search looks up declarations by vehicle identifier. The generic
// "identifier" query matches any identifier field; "plate" and "chassis"
// scope the search.
func (h *AdminHandler) Search(c *fiber.Ctx) error {
	var (
		declarations []models.Declaration
		err          error
	)

	switch {
	case c.Query("plate") != "":
		declarations, err = h.declarations.SearchByPlate(c.Context(), c.Query("plate"))
	case c.Query("chassis") != "":
		declarations, err = h.declarations.SearchByChassis(c.Context(), c.Query("chassis"))
	default:
		declarations, err = h.declarations.SearchByIdentifier(c.Context(), c.Query("identifier"))
	}
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"declarations": declarations})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notify bool   `json:"notify"`
}

// UpdateStatus changes a declaration's status. With notify set, the owner is
// told about the change on both channels using the default message.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid declaration id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	declaration, err := h.declarations.Get(c.Context(), id)
	if err != nil {
		return serviceError(err)
	}

	if err := h.declarations.UpdateStatus(c.Context(), declaration, req.Status); err != nil {
		return serviceError(err)
	}

	if req.Notify {
		message := services.DefaultStatusUpdateMessage(declaration, req.Status)
		channels := []string{models.ChannelSMS, models.ChannelApp}
		if _, err := h.notifications.Notify(c.Context(), declaration.ID, &admin.ID, message, channels); err != nil {
			return serviceError(err)
		}
	}

	return c.JSON(fiber.Map{"declaration": declaration})
}

type notifyRequest struct {
	Message  string   `json:"message"`
	Channels []string `json:"channels"`
}

// NotifyOwner queues a notification to a declaration's owner. Without an
// explicit message the default for the declaration's current status is used;
// without channels both sms and app are targeted.
func (h *AdminHandler) NotifyOwner(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid declaration id")
	}

	var req notifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	declaration, err := h.declarations.Get(c.Context(), id)
	if err != nil {
		return serviceError(err)
	}

	message := req.Message
	if message == "" {
		if declaration.IsFound() {
			message = services.DefaultFoundMessage(declaration)
		} else {
			message = services.DefaultStatusUpdateMessage(declaration, declaration.Status)
		}
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = []string{models.ChannelSMS, models.ChannelApp}
	}

	notifications, err := h.notifications.Notify(c.Context(), declaration.ID, &admin.ID, message, channels)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":       "Notification en cours d'envoi",
		"notifications": notifications,
	})
}

// DeclarationNotifications lists a declaration's notification history.
func (h *AdminHandler) DeclarationNotifications(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid declaration id")
	}

	if _, err := h.declarations.Get(c.Context(), id); err != nil {
		return serviceError(err)
	}

	notifications, err := h.notifications.ByDeclaration(c.Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// MyNotifications lists notifications triggered by the authenticated admin.
func (h *AdminHandler) MyNotifications(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	notifications, err := h.notifStore.FindByAdmin(c.Context(), admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// FailedNotifications lists notifications still undelivered after an hour.
func (h *AdminHandler) FailedNotifications(c *fiber.Ctx) error {
	notifications, err := h.notifications.FindFailed(c.Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// ResendNotification requeues a notification for delivery.
func (h *AdminHandler) ResendNotification(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notification id")
	}

	notification, err := h.notifStore.FindByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}
		return err
	}

	if err := h.notifications.Resend(c.Context(), notification); err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":      "Notification en cours de renvoi",
		"notification": notification,
	})
}

// ValidateUser approves a pending citizen profile.
func (h *AdminHandler) ValidateUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.userStore.FindByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if err := h.users.ValidateProfile(c.Context(), user); err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"user": user})
}
