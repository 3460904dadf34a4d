package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
)

const (
	ErrInternalServer   = "The server encountered a problem and could not process your request"
	ErrNotFound         = "The requested resource not found"
	ErrMethodNotAllowed = "The requested method is not supported for this resource"
	ErrFailedValidation = "One or more fields are invalid"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

// failedValidationResponse renders validator.ValidationErrors and
// *domain.ValidationError as a 422 with one entry per field.
func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var issues []api.ValidationError

	var fieldErrs validator.ValidationErrors
	var domainErr *domain.ValidationError

	switch {
	case errors.As(err, &fieldErrs):
		for _, fieldErr := range fieldErrs {
			issues = append(issues, api.ValidationError{
				Field: fieldErr.Field(),
				Issue: appvalidator.ValidationMessage(fieldErr),
			})
		}
	case errors.As(err, &domainErr):
		issues = append(issues, api.ValidationError{
			Field: domainErr.Field,
			Issue: domainErr.Message,
		})
	default:
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: issues,
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// domainErrorResponse maps errors returned by the booking services to responses.
func (app *Application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	var unavailableErr *domain.SeatUnavailableError
	var inconsistentErr *domain.InconsistentStateError

	switch {
	case errors.As(err, &validationErr):
		app.failedValidationResponse(w, r, err)
	case errors.As(err, &unavailableErr), errors.As(err, &inconsistentErr):
		app.editConflictResponseWithErr(w, r, err)
	case errors.Is(err, domain.ErrHoldExpired):
		app.editConflictResponseWithErr(w, r, domain.ErrHoldExpired)
	case errors.Is(err, domain.ErrBookingAlreadyPaid), errors.Is(err, domain.ErrEditConflict):
		app.editConflictResponseWithErr(w, r, err)
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
