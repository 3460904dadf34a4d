package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PaymentTestSuite struct {
	BaseSuite
}

func TestPaymentSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	suite.Run(t, new(PaymentTestSuite))
}

func (s *PaymentTestSuite) SetupTest() {
	s.BaseSuite.SetupTest()
	s.app.Publisher.Calls = nil
}

// startPayment books two seats and opens a payment for the booking.
func (s *PaymentTestSuite) startPayment() (api.BookingResponse, api.PaymentUrlResponse) {
	booking := createBooking(s.T(), s.app, newBookingRequest(TestShowtimeID, "H1", "H2"))

	req, err := prepareRequest("POST", "/payments/vnpay", jsonBody(s.T(), api.CreatePaymentRequest{
		BookingId: uuid.MustParse(booking.Id),
	}), nil)
	s.Require().NoError(err)

	rec := newRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.PaymentUrlResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))

	return booking, resp
}

func (s *PaymentTestSuite) sendIPN(query string) payment.IPNAck {
	req, err := prepareRequest("GET", "/payments/vnpay/ipn?"+query, nil, nil)
	s.Require().NoError(err)

	rec := newRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var ack payment.IPNAck
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&ack))

	return ack
}

func (s *PaymentTestSuite) TestCreatePaymentURL() {
	booking, resp := s.startPayment()

	s.Equal(int64(18_000_000), resp.Amount)
	s.NotEmpty(resp.TransactionRef)

	paymentURL, err := url.Parse(resp.PaymentUrl)
	s.Require().NoError(err)

	s.True(strings.HasPrefix(resp.PaymentUrl, TestPaymentURL+"?"))

	params := paymentURL.Query()
	s.Equal(TestTmnCode, params.Get(payment.ParamTmnCode))
	s.Equal(resp.TransactionRef, params.Get(payment.ParamTxnRef))
	s.Equal("18000000", params.Get(payment.ParamAmount))
	s.Equal(TestReturnURL, params.Get(payment.ParamReturnURL))
	s.True(payment.VerifySignature(TestHashSecret, params))

	stored, err := s.app.Payments.GetByTransactionRef(context.Background(), resp.TransactionRef)
	s.Require().NoError(err)

	s.Equal(booking.Id, stored.BookingID)
	s.Equal(domain.PaymentStatusPending, stored.Status)
	s.Equal(int64(18_000_000), stored.Amount)
	s.Equal(params.Get(payment.ParamSecureHash), stored.SecureHash)
}

func (s *PaymentTestSuite) TestCreatePaymentURLFailures() {
	scenarios := []Scenario{
		{
			Name:             "returns 404 for unknown booking",
			Method:           "POST",
			URL:              "/payments/vnpay",
			Body:             strings.NewReader(`{"bookingId": "0b6f1c1e-3f4a-4c59-9a7e-2d8b6c5e4f13"}`),
			ExpectedStatus:   http.StatusNotFound,
			ExpectedResponse: `{"message": "The requested resource not found"}`,
		},
		{
			Name:           "returns 422 for invalid return url",
			Method:         "POST",
			URL:            "/payments/vnpay",
			Body:           strings.NewReader(`{"bookingId": "0b6f1c1e-3f4a-4c59-9a7e-2d8b6c5e4f13", "returnUrl": "not a url"}`),
			ExpectedStatus: http.StatusUnprocessableEntity,
			ExpectedResponse: `{
				"message": "One or more fields are invalid",
				"validationErrors": [{"field": "ReturnUrl", "issue": "must be a valid URL"}]
			}`,
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}

func (s *PaymentTestSuite) TestSuccessfulIPNFinalizesBooking() {
	booking, resp := s.startPayment()

	ack := s.sendIPN(signedCallback(resp.TransactionRef, strconv.FormatInt(resp.Amount, 10), payment.ResponseCodeSuccess))

	s.Equal(payment.AckConfirmSuccess, ack.RspCode)
	s.Equal(booking.ConfirmationCode, ack.ConfirmationCode)

	ctx := context.Background()

	stored, err := s.app.Payments.GetByTransactionRef(ctx, resp.TransactionRef)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusCompleted, stored.Status)
	s.Equal("14422574", stored.GatewayTransactionNo)
	s.Equal("NCB", stored.BankCode)
	s.NotNil(stored.PaidAt)
	s.Len(stored.SecureHash, 128)
	s.Equal(TestTmnCode, stored.RawLog[payment.ParamTmnCode])

	finalized, err := s.app.Bookings.GetByID(ctx, booking.Id)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusCompleted, finalized.PaymentStatus)
	s.Equal(resp.TransactionRef, finalized.PaymentReference)

	showtime, err := s.app.Showtimes.GetShowtime(ctx, TestShowtimeID)
	s.Require().NoError(err)
	s.Equal(domain.SeatBooked, showtime.SeatMap.Status("H1").State)
	s.Equal(domain.SeatBooked, showtime.SeatMap.Status("H2").State)
	s.Equal(78, showtime.AvailableSeats)
	s.False(showtime.HasHoldingSeats)

	s.app.Publisher.AssertNumberOfCalls(s.T(), "PublishBookingConfirmed", 1)
	s.app.Publisher.AssertCalled(s.T(), "PublishBookingConfirmed", mock.Anything, mock.MatchedBy(func(e domain.BookingConfirmedEvent) bool {
		return e.BookingID == booking.Id && e.ConfirmationCode == booking.ConfirmationCode
	}))

	// a paid booking has a ticket
	req, err := prepareRequest("GET", "/bookings/"+booking.ConfirmationCode+"/qr", nil, nil)
	s.Require().NoError(err)

	rec := newRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("image/png", rec.Header().Get("Content-Type"))
}

func (s *PaymentTestSuite) TestDuplicateIPN() {
	_, resp := s.startPayment()

	query := signedCallback(resp.TransactionRef, strconv.FormatInt(resp.Amount, 10), payment.ResponseCodeSuccess)

	s.Equal(payment.AckConfirmSuccess, s.sendIPN(query).RspCode)
	s.Equal(payment.AckAlreadyConfirmed, s.sendIPN(query).RspCode)

	s.app.Publisher.AssertNumberOfCalls(s.T(), "PublishBookingConfirmed", 1)
}

func (s *PaymentTestSuite) TestTamperedIPN() {
	booking, resp := s.startPayment()

	query := signedCallback(resp.TransactionRef, strconv.FormatInt(resp.Amount, 10), payment.ResponseCodeSuccess)
	query = strings.Replace(query, "vnp_BankCode=NCB", "vnp_BankCode=VCB", 1)

	ack := s.sendIPN(query)
	s.Equal(payment.AckInvalidSignature, ack.RspCode)

	ctx := context.Background()

	stored, err := s.app.Payments.GetByTransactionRef(ctx, resp.TransactionRef)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusFailed, stored.Status)
	s.Empty(stored.BankCode)

	unpaid, err := s.app.Bookings.GetByID(ctx, booking.Id)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPending, unpaid.PaymentStatus)

	showtime, err := s.app.Showtimes.GetShowtime(ctx, TestShowtimeID)
	s.Require().NoError(err)
	s.Equal(domain.SeatHolding, showtime.SeatMap.Status("H1").State)

	s.app.Publisher.AssertNotCalled(s.T(), "PublishBookingConfirmed", mock.Anything, mock.Anything)
}

func (s *PaymentTestSuite) TestIPNAmountMismatch() {
	_, resp := s.startPayment()

	ack := s.sendIPN(signedCallback(resp.TransactionRef, "100", payment.ResponseCodeSuccess))
	s.Equal(payment.AckInvalidAmount, ack.RspCode)

	stored, err := s.app.Payments.GetByTransactionRef(context.Background(), resp.TransactionRef)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusFailed, stored.Status)
}

func (s *PaymentTestSuite) TestIPNUnknownTransaction() {
	ack := s.sendIPN(signedCallback("UNKNOWN-REF", "100", payment.ResponseCodeSuccess))

	s.Equal(payment.AckOrderNotFound, ack.RspCode)
}

func (s *PaymentTestSuite) TestReturnRedirect() {
	booking, resp := s.startPayment()

	req, err := prepareRequest(
		"GET",
		"/payments/vnpay/return?"+signedCallback(resp.TransactionRef, strconv.FormatInt(resp.Amount, 10), payment.ResponseCodeSuccess),
		nil,
		nil,
	)
	s.Require().NoError(err)

	rec := newRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)

	s.Require().Equal(http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)

	s.True(strings.HasPrefix(location.String(), TestSuccessURL+"?"))
	s.Equal("completed", location.Query().Get("status"))
	s.Equal(booking.ConfirmationCode, location.Query().Get("confirmationCode"))
}

func (s *PaymentTestSuite) TestDeclinedReturnRedirect() {
	booking, resp := s.startPayment()

	req, err := prepareRequest(
		"GET",
		"/payments/vnpay/return?"+signedCallback(resp.TransactionRef, strconv.FormatInt(resp.Amount, 10), "24"),
		nil,
		nil,
	)
	s.Require().NoError(err)

	rec := newRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)

	s.Require().Equal(http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)

	s.True(strings.HasPrefix(location.String(), TestFailureURL+"?"))
	s.Equal("failed", location.Query().Get("status"))
	s.Equal("24", location.Query().Get("code"))

	unpaid, err := s.app.Bookings.GetByID(context.Background(), booking.Id)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPending, unpaid.PaymentStatus)
}

func (s *PaymentTestSuite) TestGetPaymentStatus() {
	_, resp := s.startPayment()

	s.sendIPN(signedCallback(resp.TransactionRef, strconv.FormatInt(resp.Amount, 10), payment.ResponseCodeSuccess))

	req, err := prepareRequest("GET", "/payments/"+resp.TransactionRef, nil, nil)
	s.Require().NoError(err)

	rec := newRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var status api.PaymentStatusResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&status))

	s.Equal(resp.TransactionRef, status.TransactionRef)
	s.Equal(string(domain.PaymentStatusCompleted), status.Status)
	s.Equal(payment.ResponseCodeSuccess, status.ResponseCode)
	s.Equal("NCB", status.BankCode)
	s.NotNil(status.PaidAt)
}
