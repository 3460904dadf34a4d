package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp":     {},
	"requestId":     {},
	"createdAt":     {},
	"holdStartedAt": {},
	"expiresAt":     {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

func executeSQLFile(t testing.TB, db *pgxpool.Pool, path string) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = db.Exec(context.Background(), string(content))
	require.NoError(t, err)
}

func flushAllCache(t testing.TB, client *redis.Client) {
	t.Helper()

	require.NoError(t, client.FlushAll(context.Background()).Err())
}

func resetState(t testing.TB, app *TestApp) {
	t.Helper()

	executeSQLFile(t, app.DB, "testdata/reset.sql")
	executeSQLFile(t, app.DB, "testdata/catalog_up.sql")
	executeSQLFile(t, app.DB, "testdata/showtimes_up.sql")
	flushAllCache(t, app.RedisClient)
}

// signedCallback returns the query string the gateway would send for ref.
func signedCallback(ref, amount, responseCode string) string {
	params := url.Values{}
	params.Set(payment.ParamTmnCode, TestTmnCode)
	params.Set(payment.ParamTxnRef, ref)
	params.Set(payment.ParamAmount, amount)
	params.Set(payment.ParamOrderInfo, "Thanh toan ve xem phim")
	params.Set(payment.ParamResponseCode, responseCode)
	params.Set(payment.ParamTransactionNo, "14422574")
	params.Set(payment.ParamBankCode, "NCB")
	params.Set(payment.ParamSecureHash, payment.Sign(TestHashSecret, payment.Canonicalize(params)))

	return params.Encode()
}

func jsonBody(t testing.TB, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return strings.NewReader(string(b))
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func ptr[T any](v T) *T {
	return &v
}

// setSeatMap overwrites the seat map of a showtime. The counters trigger keeps
// available_seats and has_holding_seats in step.
func setSeatMap(t testing.TB, app *TestApp, showtimeID string, seatMap domain.SeatMap) {
	t.Helper()

	raw, err := json.Marshal(seatMap)
	require.NoError(t, err)

	_, err = app.DB.Exec(
		context.Background(),
		`UPDATE showtimes SET seat_map = $1 WHERE id = $2`,
		raw,
		showtimeID,
	)
	require.NoError(t, err)
}
