package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-service/internal/api/dto"
	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/observability"
	"github.com/spec-kit/storefront-service/internal/service"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

// UsersHandler exposes shopper auth and admin user management endpoints.
type UsersHandler struct {
	auth    *service.AuthService
	users   *service.UserService
	metrics *observability.Metrics
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, users *service.UserService, metrics *observability.Metrics) *UsersHandler {
	return &UsersHandler{auth: authService, users: users, metrics: metrics}
}

// Signup handles POST /api/users.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.SignupUser(c.UserContext(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if user != nil {
		h.metrics.RecordOTP("issue", otpOutcome(err))
	}
	if err != nil {
		if user != nil && errors.Is(err, service.ErrOTPDelivery) {
			return apperrors.NewDeliveryFailed("account created but the OTP could not be delivered", map[string]any{
				"user_id": user.ID,
			})
		}
		return mapServiceError(err, "user")
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "user created; an OTP has been sent to the email address",
		"data":    fiber.Map{"user": dto.NewUserResponse(user)},
	})
}

// Signin handles POST /api/users/signin.
func (h *UsersHandler) Signin(c *fiber.Ctx) error {
	var req dto.SigninRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.auth.SigninUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err, "user")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(res.User),
			"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
		},
	})
}

// VerifyOTP handles POST /api/users/verify-otp.
func (h *UsersHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.auth.VerifyOTP(c.UserContext(), req.Email, req.OTP)
	h.metrics.RecordOTP("verify", otpOutcome(err))
	if err != nil {
		return mapServiceError(err, "user")
	}
	return c.JSON(fiber.Map{
		"message": "OTP verified",
		"data": fiber.Map{
			"user": dto.NewUserResponse(res.User),
			"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
		},
	})
}

// ResendOTP handles POST /api/users/resend-otp.
func (h *UsersHandler) ResendOTP(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	err := h.auth.ResendOTP(c.UserContext(), req.Email)
	h.metrics.RecordOTP("resend", otpOutcome(err))
	if err != nil {
		return mapServiceError(err, "user")
	}
	return c.JSON(fiber.Map{"message": "OTP sent"})
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapServiceError(err, "user")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	user, err := h.users.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapServiceError(err, "user")
	}
	return c.JSON(fiber.Map{
		"message": "user deleted",
		"data":    dto.NewUserResponse(user),
	})
}

// Me handles GET /api/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authorized")
	}
	resp := dto.MeResponse{
		ID:    claims.UserID,
		Email: claims.Email,
		Kind:  string(claims.Kind),
		Role:  string(claims.Role),
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	return c.JSON(fiber.Map{"data": resp})
}
