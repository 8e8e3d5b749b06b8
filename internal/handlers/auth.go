package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/stopvol/internal/config"
	"github.com/example/stopvol/internal/middleware"
	"github.com/example/stopvol/internal/services"
	"github.com/example/stopvol/internal/sms"
	"github.com/example/stopvol/internal/utils"
)

// AuthHandler bundles dependencies for OTP authentication endpoints.
type AuthHandler struct {
	otps  *services.OtpService
	users *services.UserService
	cfg   *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(otps *services.OtpService, users *services.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{otps: otps, users: users, cfg: cfg}
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type verifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// SendOtp issues a verification code to the given phone number.
func (h *AuthHandler) SendOtp(c *fiber.Ctx) error {
	var req phoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	phone := sms.FormatPhoneNumber(req.Phone, h.cfg.DefaultCountryCode)
	otp, err := h.otps.RequestCode(c.Context(), phone)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"message":    "Code de vérification envoyé",
		"phone":      phone,
		"expires_in": otp.RemainingTime(),
	})
}

// VerifyOtp consumes a verification code. On success the phone's account is
// created on first sight, the phone is stamped verified, and a bearer token
// is returned.
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	phone := sms.FormatPhoneNumber(req.Phone, h.cfg.DefaultCountryCode)
	ok, err := h.otps.VerifyCode(c.Context(), phone, req.Code)
	if err != nil {
		return serviceError(err)
	}
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Code de vérification invalide ou expiré")
	}

	user, err := h.users.FindOrCreateByPhone(c.Context(), phone)
	if err != nil {
		return serviceError(err)
	}
	if err := h.users.VerifyPhone(c.Context(), user); err != nil {
		return serviceError(err)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// ResendOtp re-issues a code once the previous one has lapsed.
func (h *AuthHandler) ResendOtp(c *fiber.Ctx) error {
	var req phoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	phone := sms.FormatPhoneNumber(req.Phone, h.cfg.DefaultCountryCode)
	otp, err := h.otps.Resend(c.Context(), phone)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"message":    "Nouveau code de vérification envoyé",
		"phone":      phone,
		"expires_in": otp.RemainingTime(),
	})
}

// OtpStatus reports the OTP state for a phone: remaining validity of the
// current code and whether a new one may be requested.
func (h *AuthHandler) OtpStatus(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone is required")
	}

	phone = sms.FormatPhoneNumber(phone, h.cfg.DefaultCountryCode)
	stats, err := h.otps.Stats(c.Context(), phone)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(stats)
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(fiber.Map{"user": user})
}
