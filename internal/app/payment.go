package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
)

func (app *Application) CreateVNPayPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CreatePaymentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	paymentURL, err := app.payments.CreatePaymentURL(r.Context(), payment.CreatePaymentInput{
		BookingID: input.BookingId.String(),
		ReturnURL: input.ReturnUrl,
		ClientIP:  clientIP(r),
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentUrlResponse{
		PaymentUrl:     paymentURL.URL,
		TransactionRef: paymentURL.TransactionRef,
		Amount:         paymentURL.Amount,
		ExpiresAt:      paymentURL.ExpiresAt,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// VNPayIPNHandler is called server to server by the gateway. It always answers
// 200 with an acknowledgement code; the gateway retries on anything else.
func (app *Application) VNPayIPNHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	outcome, err := app.payments.ProcessGatewayResponse(r.Context(), r.URL.Query(), payment.ChannelIPN)
	ack := payment.NewIPNAck(outcome, err)

	if err != nil {
		logger.Warn(
			"gateway notification rejected",
			"transaction_ref", r.URL.Query().Get(payment.ParamTxnRef),
			"rsp_code", ack.RspCode,
			"error", err,
		)
	}

	err = app.writeJSON(w, http.StatusOK, ack, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// VNPayReturnHandler verifies the browser redirect from the gateway and sends
// the customer on to the frontend result page.
func (app *Application) VNPayReturnHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.payments.ProcessGatewayResponse(r.Context(), r.URL.Query(), payment.ChannelReturn)
	if err != nil {
		app.contextGetLogger(r).Warn(
			"gateway return rejected",
			"transaction_ref", r.URL.Query().Get(payment.ParamTxnRef),
			"error", err,
		)
	}

	target := payment.ReturnRedirectURL(app.config.VNPay.SuccessURL, app.config.VNPay.FailureURL, outcome, err)

	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (app *Application) GetPaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(chi.URLParam(r, "transactionRef"))

	p, err := app.payments.GetPaymentByReference(r.Context(), ref)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentStatusResponse{
		TransactionRef:       p.TransactionRef,
		BookingId:            p.BookingID,
		Amount:               p.Amount,
		Status:               string(p.Status),
		ResponseCode:         p.ResponseCode,
		GatewayTransactionNo: p.GatewayTransactionNo,
		BankCode:             p.BankCode,
		PaidAt:               p.PaidAt,
		CreatedAt:            p.CreatedAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
