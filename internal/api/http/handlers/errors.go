package handlers

import (
	"errors"

	"github.com/spec-kit/storefront-service/internal/service"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

// mapServiceError translates service sentinels into HTTP domain errors.
// Unknown errors pass through and render as 500.
func mapServiceError(err error, resource string) error {
	if err == nil {
		return nil
	}

	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return apperrors.NewValidationError(fieldErr.Message, map[string]any{"fields": fieldErr.Fields})
	case errors.Is(err, service.ErrValidation):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, service.ErrDuplicateEmail):
		return apperrors.NewConflict(service.ErrDuplicateEmail.Error(), map[string]any{"field": "email"})
	case errors.Is(err, service.ErrDuplicateSerial):
		return apperrors.NewConflict(service.ErrDuplicateSerial.Error(), map[string]any{"field": "sl_no"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized(service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrOTPMismatch):
		return apperrors.NewUnauthorized(service.ErrOTPMismatch.Error())
	case errors.Is(err, service.ErrOTPExpired):
		return apperrors.NewUnauthorized(service.ErrOTPExpired.Error())
	case errors.Is(err, service.ErrTooManyRequests):
		return apperrors.NewTooManyRequests("please wait before requesting another OTP")
	case errors.Is(err, service.ErrForbidden):
		return apperrors.NewForbidden("operation not permitted")
	case errors.Is(err, service.ErrOTPDelivery):
		return apperrors.NewDeliveryFailed(service.ErrOTPDelivery.Error(), nil)
	}
	return err
}

func otpOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, service.ErrOTPMismatch):
		return "mismatch"
	case errors.Is(err, service.ErrOTPExpired):
		return "expired"
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrTooManyRequests):
		return "throttled"
	case errors.Is(err, service.ErrOTPDelivery):
		return "delivery_failed"
	case errors.Is(err, service.ErrValidation):
		return "invalid"
	}
	return "error"
}
