package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental/internal/cart"
	"github.com/iliyamo/car-rental/internal/model"
	"github.com/iliyamo/car-rental/internal/repository"
)

// fakeCart is an in-memory CartStore so handler tests run without redis.
type fakeCart struct {
	entries []model.CartEntry
	cleared bool
}

func (f *fakeCart) List(ctx context.Context, userID uint64) ([]model.CartEntry, error) {
	return append([]model.CartEntry{}, f.entries...), nil
}

func (f *fakeCart) Append(ctx context.Context, userID uint64, e model.CartEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeCart) RemoveAt(ctx context.Context, userID uint64, idx int) (model.CartEntry, error) {
	if idx < 0 || idx >= len(f.entries) {
		return model.CartEntry{}, cart.ErrIndexOutOfRange
	}
	removed := f.entries[idx]
	f.entries = append(f.entries[:idx], f.entries[idx+1:]...)
	return removed, nil
}

func (f *fakeCart) Clear(ctx context.Context, userID uint64) error {
	f.entries = nil
	f.cleared = true
	return nil
}

func newBookingMocks(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, *fakeCart) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	fc := &fakeCart{}
	h := NewBookingHandler(repository.NewCarRepo(db), repository.NewRentalRepo(db), fc)
	return h, mock, fc
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))
	c.Set("role", model.RoleCustomer)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

const carSelect = "SELECT id, name, brand, model, year, price_per_day_cents, license_plate, image_url, created_at, updated_at FROM cars WHERE id = ?"

func expectCar(mock sqlmock.Sqlmock, id uint64, name string, priceCents uint32) {
	mock.ExpectQuery(carSelect).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "brand", "model", "year", "price_per_day_cents",
			"license_plate", "image_url", "created_at", "updated_at",
		}).AddRow(id, name, "VW", "Golf VIII", 2023, priceCents, "B-XY-123", nil, time.Now(), time.Now()))
}

func TestRentCarInvalidDateFormat(t *testing.T) {
	h, mock, fc := newBookingMocks(t)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cars/1/rent",
		`{"start_date":"01.05.2030","end_date":"2030-05-05"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.RentCar(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid date format", decodeBody(t, rec)["error"])
	// Validation failures never touch the database or the cart.
	assert.Empty(t, fc.entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentCarInvertedRange(t *testing.T) {
	h, mock, fc := newBookingMocks(t)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cars/1/rent",
		`{"start_date":"2030-05-05","end_date":"2030-05-01"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.RentCar(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "end date cannot be before start date", decodeBody(t, rec)["error"])
	assert.Empty(t, fc.entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentCarPastStart(t *testing.T) {
	h, mock, fc := newBookingMocks(t)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cars/1/rent",
		`{"start_date":"2019-01-01","end_date":"2019-01-03"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.RentCar(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "start date cannot be in the past", decodeBody(t, rec)["error"])
	assert.Empty(t, fc.entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentCarSuccess(t *testing.T) {
	h, mock, fc := newBookingMocks(t)
	start, _ := time.ParseInLocation(model.DateOnly, "2030-03-01", time.UTC)
	end, _ := time.ParseInLocation(model.DateOnly, "2030-03-03", time.UTC)

	expectCar(mock, 1, "Golf", 4500)
	mock.ExpectQuery("SELECT COUNT(*) FROM rentals WHERE car_id = ? AND status = 'ACCEPTED' AND start_date <= ? AND end_date >= ?").
		WithArgs(uint64(1), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cars/1/rent",
		`{"start_date":"2030-03-01","end_date":"2030-03-03"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.RentCar(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Three inclusive days at 4500 cents/day.
	require.Len(t, fc.entries, 1)
	e := fc.entries[0]
	assert.Equal(t, model.CartEntryDated, e.Kind)
	assert.Equal(t, 3, e.Days)
	assert.Equal(t, uint32(13500), e.TotalCents)
	assert.Equal(t, "2030-03-01", e.StartDate)
	assert.Equal(t, "2030-03-03", e.EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentCarUnavailable(t *testing.T) {
	h, mock, fc := newBookingMocks(t)
	start, _ := time.ParseInLocation(model.DateOnly, "2030-03-01", time.UTC)
	end, _ := time.ParseInLocation(model.DateOnly, "2030-03-03", time.UTC)

	expectCar(mock, 1, "Golf", 4500)
	mock.ExpectQuery("SELECT COUNT(*) FROM rentals WHERE car_id = ? AND status = 'ACCEPTED' AND start_date <= ? AND end_date >= ?").
		WithArgs(uint64(1), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cars/1/rent",
		`{"start_date":"2030-03-01","end_date":"2030-03-03"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.RentCar(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, fc.entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentCarOverlapsCartEntry(t *testing.T) {
	h, mock, fc := newBookingMocks(t)
	fc.entries = []model.CartEntry{{
		Kind: model.CartEntryDated, CarID: 1, CarName: "Golf",
		StartDate: "2030-03-02", EndDate: "2030-03-06", TotalCents: 22500, Days: 5,
	}}
	start, _ := time.ParseInLocation(model.DateOnly, "2030-03-01", time.UTC)
	end, _ := time.ParseInLocation(model.DateOnly, "2030-03-03", time.UTC)

	expectCar(mock, 1, "Golf", 4500)
	mock.ExpectQuery("SELECT COUNT(*) FROM rentals WHERE car_id = ? AND status = 'ACCEPTED' AND start_date <= ? AND end_date >= ?").
		WithArgs(uint64(1), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cars/1/rent",
		`{"start_date":"2030-03-01","end_date":"2030-03-03"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.RentCar(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, fc.entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuickAddDuplicateWarns(t *testing.T) {
	h, mock, fc := newBookingMocks(t)
	fc.entries = []model.CartEntry{{Kind: model.CartEntryQuick, CarID: 1, CarName: "Golf", TotalCents: 4500}}

	expectCar(mock, 1, "Golf", 4500)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cars/1/cart", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.QuickAdd(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "warning", body["status"])
	assert.Equal(t, "car already in cart", body["message"])
	// No second entry appears.
	assert.Len(t, fc.entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveFromCartOutOfRange(t *testing.T) {
	h, mock, fc := newBookingMocks(t)
	fc.entries = []model.CartEntry{{Kind: model.CartEntryQuick, CarID: 1, CarName: "Golf", TotalCents: 4500}}

	c, rec := newJSONContext(t, http.MethodDelete, "/v1/cart/5", "")
	c.SetParamNames("index")
	c.SetParamValues("5")

	require.NoError(t, h.RemoveFromCart(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "item not found in cart", decodeBody(t, rec)["error"])
	assert.Len(t, fc.entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutEmptyCart(t *testing.T) {
	h, mock, fc := newBookingMocks(t)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", "")

	require.NoError(t, h.Checkout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart is empty", decodeBody(t, rec)["error"])
	assert.False(t, fc.cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRefusesUndatedEntries(t *testing.T) {
	h, mock, fc := newBookingMocks(t)
	fc.entries = []model.CartEntry{
		{Kind: model.CartEntryDated, CarID: 1, CarName: "Golf",
			StartDate: "2030-03-01", EndDate: "2030-03-03", TotalCents: 13500, Days: 3},
		{Kind: model.CartEntryQuick, CarID: 2, CarName: "Civic", TotalCents: 5200},
	}

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", "")

	require.NoError(t, h.Checkout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	// The quick-add entry's position is reported so the customer can fix it.
	assert.Equal(t, []any{float64(1)}, body["positions"])
	assert.False(t, fc.cleared)
	assert.Len(t, fc.entries, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutSuccess(t *testing.T) {
	h, mock, fc := newBookingMocks(t)
	fc.entries = []model.CartEntry{{
		Kind: model.CartEntryDated, CarID: 7, CarName: "Golf",
		StartDate: "2030-03-01", EndDate: "2030-03-03", TotalCents: 13500, Days: 3,
	}}
	start, _ := time.ParseInLocation(model.DateOnly, "2030-03-01", time.UTC)
	end, _ := time.ParseInLocation(model.DateOnly, "2030-03-03", time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rentals (user_id, car_id, start_date, end_date, total_cents, status) VALUES (?, ?, ?, ?, ?, ?)").
		WithArgs(uint64(1), uint64(7), start, end, uint32(13500), model.RentalStatusPending).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", "")

	require.NoError(t, h.Checkout(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(1), body["created"])
	assert.True(t, fc.cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}
