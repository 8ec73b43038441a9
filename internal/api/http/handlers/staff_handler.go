package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// StaffHandler exposes staff registration and login.
type StaffHandler struct {
	auth *service.AuthService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService) *StaffHandler {
	return &StaffHandler{auth: authService}
}

// Register POST /auth/staff/register.
func (h *StaffHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.RegisterStaff(c.UserContext(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": staffSessionResponse(session)})
}

// Login POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffSessionResponse(session)})
}

// Me GET /auth/staff/me. Runs behind the token middleware.
func (h *StaffHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("bearer token required")
	}
	return c.JSON(fiber.Map{"data": dto.StaffResponse{
		StaffID:     principal.Staff.ID,
		Email:       principal.Staff.Email,
		DisplayName: principal.Staff.DisplayName,
	}})
}

func staffSessionResponse(session *service.StaffSession) dto.StaffSessionResponse {
	return dto.StaffSessionResponse{
		StaffID:     session.Staff.ID,
		Email:       session.Staff.Email,
		DisplayName: session.Staff.DisplayName,
		Token:       session.Token,
		ExpiresAt:   session.ExpiresAt,
	}
}
