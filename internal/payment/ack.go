package payment

import (
	"errors"
	"net/url"
	"strings"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// IPN acknowledgement codes expected by the gateway.
const (
	AckConfirmSuccess   = "00"
	AckOrderNotFound    = "01"
	AckAlreadyConfirmed = "02"
	AckInvalidAmount    = "04"
	AckInvalidSignature = "97"
	AckUnknownError     = "99"
)

type IPNAck struct {
	RspCode          string `json:"RspCode"`
	Message          string `json:"Message"`
	ConfirmationCode string `json:"confirmationCode,omitempty"`
}

// NewIPNAck renders any processing result as an acknowledgement. The gateway
// retries on anything it cannot parse, so this never fails.
func NewIPNAck(outcome *Outcome, err error) IPNAck {
	ack := IPNAck{ConfirmationCode: outcome.ConfirmationCode()}

	switch {
	case err == nil && outcome.Duplicate:
		ack.RspCode, ack.Message = AckAlreadyConfirmed, "Order already confirmed"
	case err == nil:
		ack.RspCode, ack.Message = AckConfirmSuccess, "Confirm Success"
	case errors.Is(err, domain.ErrTransactionNotFound):
		ack.RspCode, ack.Message = AckOrderNotFound, "Order not found"
	case errors.Is(err, domain.ErrSignatureInvalid):
		ack.RspCode, ack.Message = AckInvalidSignature, "Invalid signature"
	case errors.Is(err, domain.ErrAmountMismatch):
		ack.RspCode, ack.Message = AckInvalidAmount, "Invalid amount"
	default:
		ack.RspCode, ack.Message = AckUnknownError, "Unknown error"
	}

	return ack
}

// ReturnRedirectURL picks the frontend page the customer lands on after the
// gateway redirects the browser back.
func ReturnRedirectURL(successURL, failureURL string, outcome *Outcome, err error) string {
	query := url.Values{}

	target := failureURL
	switch {
	case err != nil:
		query.Set("status", "error")
		query.Set("code", returnErrorCode(err))
		query.Set("message", "Payment could not be verified")
	case outcome.Success:
		target = successURL
		query.Set("status", strings.ToLower(string(outcome.Payment.Status)))
		query.Set("code", outcome.Payment.ResponseCode)
		query.Set("message", "Payment successful")
	default:
		query.Set("status", strings.ToLower(string(outcome.Payment.Status)))
		query.Set("code", outcome.Payment.ResponseCode)
		query.Set("message", "Payment failed")
	}

	if code := outcome.ConfirmationCode(); code != "" {
		query.Set("confirmationCode", code)
	}

	return target + "?" + query.Encode()
}

func returnErrorCode(err error) string {
	return NewIPNAck(nil, err).RspCode
}
