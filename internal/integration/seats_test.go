package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SeatsTestSuite struct {
	BaseSuite
}

func TestSeatsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	suite.Run(t, new(SeatsTestSuite))
}

func (s *SeatsTestSuite) TestGetSeatStatus() {
	scenarios := []Scenario{
		{
			Name:             "returns 404 for non-existent showtime",
			Method:           "GET",
			URL:              "/showtimes/showtime-999/seats",
			ExpectedStatus:   http.StatusNotFound,
			ExpectedResponse: `{"message": "The requested resource not found"}`,
		},
		{
			Name:           "returns empty seat map for untouched showtime",
			Method:         "GET",
			URL:            "/showtimes/showtime-1/seats",
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"showtimeId": "showtime-1",
				"status": "ACTIVE",
				"totalSeats": 80,
				"availableSeats": 80,
				"holdingSeats": 0,
				"bookedSeats": 0,
				"seatMap": {}
			}`,
		},
		{
			Name:           "returns booked seats",
			Method:         "GET",
			URL:            "/showtimes/showtime-booked/seats",
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"showtimeId": "showtime-booked",
				"status": "ACTIVE",
				"totalSeats": 80,
				"availableSeats": 79,
				"holdingSeats": 0,
				"bookedSeats": 1,
				"seatMap": {"A1": {"state": "BOOKED", "bookingId": "legacy-booking"}}
			}`,
		},
		{
			Name:           "returns held seats",
			Method:         "GET",
			URL:            "/showtimes/showtime-1/seats",
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"showtimeId": "showtime-1",
				"status": "ACTIVE",
				"totalSeats": 80,
				"availableSeats": 78,
				"holdingSeats": 2,
				"bookedSeats": 0,
				"seatMap": {"A1": {"state": "HOLDING"}, "A2": {"state": "HOLDING"}}
			}`,
			BeforeTestFunc: func(t testing.TB, app *TestApp) {
				err := app.Seats.HoldSeats(context.Background(), TestShowtimeID, []string{"A1", "A2"}, TestCustomerPhone)
				require.NoError(t, err)
			},
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}

func (s *SeatsTestSuite) TestHoldSeats() {
	scenarios := []Scenario{
		{
			Name:             "returns 400 for malformed body",
			Method:           "POST",
			URL:              "/seats/hold",
			Body:             strings.NewReader(`{"showtimeId": "showtime-1",`),
			ExpectedStatus:   http.StatusBadRequest,
			ExpectedResponse: `{"message": "body contains badly-formed JSON"}`,
		},
		{
			Name:   "returns 422 for invalid phone",
			Method: "POST",
			URL:    "/seats/hold",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-1",
				"seatIds": ["A1"],
				"customerPhone": "12345"
			}`),
			ExpectedStatus: http.StatusUnprocessableEntity,
			ExpectedResponse: `{
				"message": "One or more fields are invalid",
				"validationErrors": [{"field": "CustomerPhone", "issue": "must be a valid phone number"}]
			}`,
		},
		{
			Name:   "returns 404 for non-existent showtime",
			Method: "POST",
			URL:    "/seats/hold",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-999",
				"seatIds": ["A1"],
				"customerPhone": "0901234567"
			}`),
			ExpectedStatus:   http.StatusNotFound,
			ExpectedResponse: `{"message": "The requested resource not found"}`,
		},
		{
			Name:   "returns 409 for booked seat",
			Method: "POST",
			URL:    "/seats/hold",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-booked",
				"seatIds": ["A2", "A1"],
				"customerPhone": "0901234567"
			}`),
			ExpectedStatus:   http.StatusConflict,
			ExpectedResponse: `{"message": "seat A1 is not available for showtime showtime-booked"}`,
			AfterTestFunc: func(t testing.TB, app *TestApp, res *http.Response) {
				showtime, err := app.Showtimes.GetShowtime(context.Background(), "showtime-booked")
				require.NoError(t, err)

				assert.Equal(t, domain.SeatAvailable, showtime.SeatMap.Status("A2").State)
				assert.Equal(t, 79, showtime.AvailableSeats)
			},
		},
		{
			Name:   "holds seats",
			Method: "POST",
			URL:    "/seats/hold",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-1",
				"seatIds": ["B1", "B2"],
				"customerPhone": "0901234567"
			}`),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"showtimeId": "showtime-1",
				"seatIds": ["B1", "B2"],
				"status": "HOLDING"
			}`,
			AfterTestFunc: func(t testing.TB, app *TestApp, res *http.Response) {
				showtime, err := app.Showtimes.GetShowtime(context.Background(), TestShowtimeID)
				require.NoError(t, err)

				assert.Equal(t, 78, showtime.AvailableSeats)
				assert.True(t, showtime.HasHoldingSeats)
				assert.Equal(t, domain.SeatHolding, showtime.SeatMap.Status("B1").State)
				assert.NotNil(t, showtime.SeatMap.Status("B1").HoldStartedAt)
			},
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}

func (s *SeatsTestSuite) TestHoldSeatsReturnsExpiry() {
	req, err := prepareRequest("POST", "/seats/hold", jsonBody(s.T(), api.HoldSeatsRequest{
		ShowtimeId:    TestShowtimeID,
		SeatIds:       []string{"C5"},
		CustomerPhone: TestCustomerPhone,
	}), nil)
	s.Require().NoError(err)

	before := time.Now().UTC().Truncate(time.Second)

	rec := newRecorder()
	s.app.App.Routes().ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var resp api.SeatHoldResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().NotNil(resp.ExpiresAt)

	s.WithinDuration(before.Add(10*time.Minute), *resp.ExpiresAt, 5*time.Second)
}

func (s *SeatsTestSuite) TestReleaseSeats() {
	scenarios := []Scenario{
		{
			Name:   "releases held seats and skips booked ones",
			Method: "POST",
			URL:    "/seats/release",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-booked",
				"seatIds": ["A1", "A2"]
			}`),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"showtimeId": "showtime-booked",
				"seatIds": ["A1", "A2"],
				"status": "AVAILABLE"
			}`,
			BeforeTestFunc: func(t testing.TB, app *TestApp) {
				err := app.Seats.HoldSeats(context.Background(), "showtime-booked", []string{"A2"}, TestCustomerPhone)
				require.NoError(t, err)
			},
			AfterTestFunc: func(t testing.TB, app *TestApp, res *http.Response) {
				showtime, err := app.Showtimes.GetShowtime(context.Background(), "showtime-booked")
				require.NoError(t, err)

				assert.Equal(t, domain.SeatBooked, showtime.SeatMap.Status("A1").State)
				assert.Equal(t, domain.SeatAvailable, showtime.SeatMap.Status("A2").State)
				assert.Equal(t, 79, showtime.AvailableSeats)
				assert.False(t, showtime.HasHoldingSeats)
			},
		},
		{
			Name:   "returns 422 for duplicate seats",
			Method: "POST",
			URL:    "/seats/release",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-1",
				"seatIds": ["A1", "A1"]
			}`),
			ExpectedStatus: http.StatusUnprocessableEntity,
			ExpectedResponse: `{
				"message": "One or more fields are invalid",
				"validationErrors": [{"field": "SeatIds", "issue": "must not contain duplicates"}]
			}`,
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}

func (s *SeatsTestSuite) TestExtendSeatHold() {
	scenarios := []Scenario{
		{
			Name:   "returns 409 for seat that is not held",
			Method: "POST",
			URL:    "/seats/extend-hold",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-1",
				"seatIds": ["D1"]
			}`),
			ExpectedStatus:   http.StatusConflict,
			ExpectedResponse: `{"message": "seat hold has expired, please select your seats again"}`,
		},
		{
			Name:   "returns 409 for expired hold",
			Method: "POST",
			URL:    "/seats/extend-hold",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-1",
				"seatIds": ["D1"]
			}`),
			ExpectedStatus:   http.StatusConflict,
			ExpectedResponse: `{"message": "seat hold has expired, please select your seats again"}`,
			BeforeTestFunc: func(t testing.TB, app *TestApp) {
				setSeatMap(t, app, TestShowtimeID, domain.SeatMap{
					"D1": {State: domain.SeatHolding, HoldStartedAt: ptr(time.Now().Add(-11 * time.Minute))},
				})
			},
		},
		{
			Name:   "extends live hold",
			Method: "POST",
			URL:    "/seats/extend-hold",
			Body: strings.NewReader(`{
				"showtimeId": "showtime-1",
				"seatIds": ["D1"]
			}`),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"showtimeId": "showtime-1",
				"seatIds": ["D1"],
				"status": "HOLDING"
			}`,
			BeforeTestFunc: func(t testing.TB, app *TestApp) {
				setSeatMap(t, app, TestShowtimeID, domain.SeatMap{
					"D1": {State: domain.SeatHolding, HoldStartedAt: ptr(time.Now().Add(-9 * time.Minute))},
				})
			},
			AfterTestFunc: func(t testing.TB, app *TestApp, res *http.Response) {
				showtime, err := app.Showtimes.GetShowtime(context.Background(), TestShowtimeID)
				require.NoError(t, err)

				heldAt := showtime.SeatMap.Status("D1").HoldStartedAt
				require.NotNil(t, heldAt)
				assert.WithinDuration(t, time.Now(), *heldAt, 30*time.Second)
			},
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}
