package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/stopvol/internal/config"
	"github.com/example/stopvol/internal/handlers"
	"github.com/example/stopvol/internal/middleware"
	"github.com/example/stopvol/internal/store"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Cfg          *config.Config
	Users        store.UserStore
	Auth         *handlers.AuthHandler
	Profile      *handlers.ProfileHandler
	Declarations *handlers.DeclarationHandler
	Admin        *handlers.AdminHandler
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/send-otp", deps.Auth.SendOtp)
	auth.Post("/verify-otp", deps.Auth.VerifyOtp)
	auth.Post("/resend-otp", deps.Auth.ResendOtp)
	auth.Get("/otp-status", deps.Auth.OtpStatus)

	// Authenticated routes
	protected := api.Group("", middleware.AuthMiddleware(deps.Cfg), middleware.LoadUser(deps.Users))

	protected.Get("/auth/me", deps.Auth.Me)

	protected.Get("/profile", deps.Profile.Show)
	protected.Put("/profile", deps.Profile.Update)
	protected.Post("/profile/complete", deps.Profile.Complete)
	protected.Post("/profile/upload-document", deps.Profile.UploadDocument)

	protected.Get("/declarations", deps.Declarations.List)
	protected.Post("/declarations", deps.Declarations.Create)
	protected.Get("/declarations/:id", deps.Declarations.Get)
	protected.Post("/declarations/:id/pictures", deps.Declarations.AddPictures)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.Get("/dashboard", deps.Admin.Dashboard)
	admin.Get("/declarations", deps.Admin.Declarations)
	admin.Get("/declarations/search", deps.Admin.Search)
	admin.Put("/declarations/:id/status", deps.Admin.UpdateStatus)
	admin.Post("/declarations/:id/notify", deps.Admin.NotifyOwner)
	admin.Get("/declarations/:id/notifications", deps.Admin.DeclarationNotifications)
	admin.Get("/notifications", deps.Admin.MyNotifications)
	admin.Get("/notifications/failed", deps.Admin.FailedNotifications)
	admin.Post("/notifications/:id/resend", deps.Admin.ResendNotification)
	admin.Put("/users/:id/validate", deps.Admin.ValidateUser)
}
