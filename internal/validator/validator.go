package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Vietnamese mobile numbers: (+84|84|0) followed by a carrier prefix and 8 digits.
var phoneRgx = regexp.MustCompile(`^(\+84|84|0)(3|5|7|8|9)\d{8}$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("phone", validatePhone)
	validator.RegisterValidation("booking_id", validateBookingID)

	return validator
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

// Booking ids are random (version 4) UUIDs.
func validateBookingID(fl validator.FieldLevel) bool {
	id, ok := fl.Field().Interface().(openapi_types.UUID)
	if !ok {
		return false
	}

	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}

func IsValidPhone(phone string) bool {
	return phoneRgx.MatchString(strings.TrimSpace(phone))
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "phone":
		return "must be a valid phone number"
	case "booking_id":
		return "must be a valid booking id"
	case "unique":
		return "must not contain duplicates"
	case "min":
		if err.Kind().String() == "slice" {
			return fmt.Sprintf("must contain at least %s items", err.Param())
		}
		return fmt.Sprintf("must be at least %s characters long", err.Param())
	case "max":
		if err.Kind().String() == "slice" {
			return fmt.Sprintf("must contain at most %s items", err.Param())
		}
		return fmt.Sprintf("must be at most %s characters long", err.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())
	default:
		return "is invalid"
	}
}
