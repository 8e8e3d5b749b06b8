package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/stopvol/internal/middleware"
	"github.com/example/stopvol/internal/services"
)

// ProfileHandler bundles dependencies for profile endpoints.
type ProfileHandler struct {
	users *services.UserService
	blobs blobURLResolver
}

type blobURLResolver interface {
	URL(path string) string
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(users *services.UserService, blobs blobURLResolver) *ProfileHandler {
	return &ProfileHandler{users: users, blobs: blobs}
}

type profileRequest struct {
	Name     string `json:"name"`
	IDType   string `json:"id_type"`
	City     string `json:"city"`
	District string `json:"district"`
	FcmToken string `json:"fcm_token"`
}

func (r profileRequest) input() services.ProfileInput {
	return services.ProfileInput{
		Name:     r.Name,
		IDType:   r.IDType,
		City:     r.City,
		District: r.District,
		FcmToken: r.FcmToken,
	}
}

// Show returns the authenticated user's profile.
func (h *ProfileHandler) Show(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	documents := fiber.Map{}
	if user.ProfilePicture != "" {
		documents["profile_picture"] = h.blobs.URL(user.ProfilePicture)
	}
	if user.IDCardFront != "" {
		documents["id_card_front"] = h.blobs.URL(user.IDCardFront)
	}
	if user.IDCardBack != "" {
		documents["id_card_back"] = h.blobs.URL(user.IDCardBack)
	}

	return c.JSON(fiber.Map{
		"user":      user,
		"documents": documents,
	})
}

// Complete fills in the profile details and submits it for validation.
func (h *ProfileHandler) Complete(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.users.CompleteProfile(c.Context(), user, req.input()); err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"message": "Profil soumis pour validation",
		"user":    user,
	})
}

// Update changes mutable profile fields.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.users.UpdateProfile(c.Context(), user, req.input()); err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"user": user})
}

// UploadDocument stores a profile picture or identity document.
func (h *ProfileHandler) UploadDocument(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	kind := c.FormValue("kind")
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	data, ext, err := readUpload(header)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}

	path, err := h.users.UploadDocument(c.Context(), user, kind, data, ext)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"path": path,
		"url":  h.blobs.URL(path),
	})
}
