// internal/handlers/auth_handler.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hoshichaam/crm_loyalty_go/internal/middleware"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/services"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

type AuthHandler struct {
	svc *services.AuthService
}

func NewAuthHandler(s *services.AuthService) *AuthHandler {
	return &AuthHandler{svc: s}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	debugPrintln("AUTH Register: body parsed for", maskEmail(req.Email))

	user, err := h.svc.Register(c.UserContext(), req)
	if err != nil {
		debugPrintln("AUTH Register: failed", maskEmail(req.Email), err)
		return mapError(c, err)
	}
	debugPrintln("AUTH Register: success userID=", user.ID, "email=", maskEmail(user.Email))
	return response.Created(c, "User registered successfully", user)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}

	pair, err := h.svc.Login(c.UserContext(), req)
	if err != nil {
		debugPrintln("AUTH Login: failed for", maskEmail(req.Username), err)
		return mapError(c, err)
	}
	debugPrintln("AUTH Login: success userID=", pair.User.ID)
	return response.OK(c, "Login successful", pair)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req models.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Refresh(c.UserContext(), req)
	if err != nil {
		debugPrintln("AUTH Refresh: failed", err)
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	user, err := h.svc.Me(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", user)
}

// PUT /api/auth/me
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	var req models.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	user, err := h.svc.UpdateProfile(c.UserContext(), id, req)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "Profile updated successfully", user)
}

// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	var req models.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	if err := h.svc.ChangePassword(c.UserContext(), id, req); err != nil {
		debugPrintln("AUTH ChangePassword: failed userID=", id, err)
		return mapError(c, err)
	}
	return response.OK(c, "Password changed successfully", nil)
}
