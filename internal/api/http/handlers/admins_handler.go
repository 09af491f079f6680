package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-service/internal/api/dto"
	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/service"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

// AdminsHandler exposes back-office account endpoints.
type AdminsHandler struct {
	admins *service.AdminService
}

// NewAdminsHandler constructs handler.
func NewAdminsHandler(admins *service.AdminService) *AdminsHandler {
	return &AdminsHandler{admins: admins}
}

// Signin handles POST /api/admins/signin.
func (h *AdminsHandler) Signin(c *fiber.Ctx) error {
	var req dto.AdminSigninRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.admins.SigninAdmin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err, "admin")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"admin": dto.NewAdminResponse(res.Admin),
			"auth":  dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
		},
	})
}

// Create handles POST /api/admins.
func (h *AdminsHandler) Create(c *fiber.Ctx) error {
	caller, err := callerSubject(c)
	if err != nil {
		return err
	}
	var req dto.CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	admin, err := h.admins.CreateAdmin(c.UserContext(), caller, service.CreateAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return mapServiceError(err, "admin")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "admin created",
		"data":    dto.NewAdminResponse(admin),
	})
}

// List handles GET /api/admins.
func (h *AdminsHandler) List(c *fiber.Ctx) error {
	admins, err := h.admins.ListAdmins(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdminResponses(admins)})
}

// Update handles PUT /api/admins/:id.
func (h *AdminsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	admin, err := h.admins.UpdateAdmin(c.UserContext(), c.Params("id"), service.UpdateAdminInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return mapServiceError(err, "admin")
	}
	return c.JSON(fiber.Map{"data": dto.NewAdminResponse(admin)})
}

// Delete handles DELETE /api/admins/:id.
func (h *AdminsHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerSubject(c)
	if err != nil {
		return err
	}
	if err := h.admins.DeleteAdmin(c.UserContext(), caller, c.Params("id")); err != nil {
		return mapServiceError(err, "admin")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func callerSubject(c *fiber.Ctx) (domain.Subject, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return domain.Subject{}, apperrors.NewUnauthorized("not authorized")
	}
	return claims.Subject(), nil
}
