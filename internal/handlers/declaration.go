package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/stopvol/internal/middleware"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/services"
)

// DeclarationHandler bundles dependencies for declaration endpoints.
type DeclarationHandler struct {
	declarations *services.DeclarationService
}

// NewDeclarationHandler constructs a DeclarationHandler.
func NewDeclarationHandler(declarations *services.DeclarationService) *DeclarationHandler {
	return &DeclarationHandler{declarations: declarations}
}

// List returns the authenticated user's declarations, newest first.
func (h *DeclarationHandler) List(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	declarations, err := h.declarations.UserDeclarations(c.Context(), user.ID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"declarations": declarations})
}

// Create files a new theft declaration. Vehicle details arrive as multipart
// form fields, pictures as repeated "pictures" file parts.
func (h *DeclarationHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	in := services.CreateDeclarationInput{
		PlateNumber:   c.FormValue("plate_number"),
		ChassisNumber: c.FormValue("chassis_number"),
		CardNumber:    c.FormValue("card_number"),
		Brand:         c.FormValue("brand"),
		Model:         c.FormValue("model"),
		Color:         c.FormValue("color"),
		TheftDate:     c.FormValue("theft_date"),
		TheftLocation: c.FormValue("theft_location"),
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, header := range form.File["pictures"] {
			data, ext, err := readUpload(header)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded picture")
			}
			in.Pictures = append(in.Pictures, services.PictureUpload{Data: data, Ext: ext})
		}
	}

	declaration, err := h.declarations.Create(c.Context(), user, in)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Déclaration enregistrée",
		"declaration": declaration,
	})
}

// Get returns one declaration. Citizens can only read their own; admins can
// read any.
func (h *DeclarationHandler) Get(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	declaration, err := h.loadDeclaration(c, user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"declaration": declaration,
		"pictures":    h.declarations.PictureURLs(declaration),
	})
}

// AddPictures appends pictures to an existing declaration.
func (h *DeclarationHandler) AddPictures(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	declaration, err := h.loadDeclaration(c, user)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil || form == nil || len(form.File["pictures"]) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "at least one picture is required")
	}

	for _, header := range form.File["pictures"] {
		data, ext, err := readUpload(header)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded picture")
		}
		if err := h.declarations.AddPicture(c.Context(), declaration, services.PictureUpload{Data: data, Ext: ext}); err != nil {
			return serviceError(err)
		}
	}

	return c.JSON(fiber.Map{
		"declaration": declaration,
		"pictures":    h.declarations.PictureURLs(declaration),
	})
}

// loadDeclaration parses the :id param, fetches the record and enforces that
// only the owner or an admin may access it.
func (h *DeclarationHandler) loadDeclaration(c *fiber.Ctx, user *models.User) (*models.Declaration, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid declaration id")
	}

	declaration, err := h.declarations.Get(c.Context(), id)
	if err != nil {
		return nil, serviceError(err)
	}

	if declaration.UserID != user.ID && !user.IsAdmin() {
		return nil, fiber.NewError(fiber.StatusForbidden, "access denied")
	}
	return declaration, nil
}
