package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental/internal/model"
	"github.com/iliyamo/car-rental/internal/queue"
	"github.com/iliyamo/car-rental/internal/repository"
)

const (
	rentalForUpdate = "SELECT id, user_id, car_id, start_date, end_date, total_cents, status, created_at, updated_at FROM rentals WHERE id = ? FOR UPDATE"
	availForUpdate  = "SELECT COUNT(*) FROM rentals WHERE car_id = ? AND status = 'ACCEPTED' AND start_date <= ? AND end_date >= ? AND id <> ? FOR UPDATE"
)

func newAdminMocks(t *testing.T, publish ApprovedPublisher) (*AdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewAdminHandler(repository.NewCarRepo(db), repository.NewRentalRepo(db), publish)
	return h, mock
}

func pendingRentalRow(t *testing.T, id uint64, status string) *sqlmock.Rows {
	t.Helper()
	start, _ := time.ParseInLocation(model.DateOnly, "2030-03-01", time.UTC)
	end, _ := time.ParseInLocation(model.DateOnly, "2030-03-03", time.UTC)
	return sqlmock.NewRows([]string{
		"id", "user_id", "car_id", "start_date", "end_date",
		"total_cents", "status", "created_at", "updated_at",
	}).AddRow(id, 1, 7, start, end, 13500, status, time.Now(), time.Now())
}

func TestApproveRentalSuccess(t *testing.T) {
	var published []queue.RentalApprovedEvent
	h, mock := newAdminMocks(t, func(ctx context.Context, ev queue.RentalApprovedEvent) error {
		published = append(published, ev)
		return nil
	})
	start, _ := time.ParseInLocation(model.DateOnly, "2030-03-01", time.UTC)
	end, _ := time.ParseInLocation(model.DateOnly, "2030-03-03", time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(rentalForUpdate).
		WithArgs(uint64(5)).
		WillReturnRows(pendingRentalRow(t, 5, model.RentalStatusPending))
	mock.ExpectQuery(availForUpdate).
		WithArgs(uint64(7), end, start, uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec("UPDATE rentals SET status = 'ACCEPTED' WHERE id = ? AND status = 'PENDING'").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	// The event is enriched with car details after the commit.
	expectCar(mock, 7, "Golf", 4500)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/rentals/5/approve", "")
	c.Set("role", model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.ApproveRental(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, published, 1)
	ev := published[0]
	assert.Equal(t, uint64(5), ev.RentalID)
	assert.Equal(t, uint64(7), ev.CarID)
	assert.Equal(t, "Golf", ev.CarName)
	assert.Equal(t, "2030-03-01", ev.StartDate)
	assert.Equal(t, "2030-03-03", ev.EndDate)
	assert.Equal(t, uint32(13500), ev.TotalCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveRentalConflictRollsBack(t *testing.T) {
	var published []queue.RentalApprovedEvent
	h, mock := newAdminMocks(t, func(ctx context.Context, ev queue.RentalApprovedEvent) error {
		published = append(published, ev)
		return nil
	})
	start, _ := time.ParseInLocation(model.DateOnly, "2030-03-01", time.UTC)
	end, _ := time.ParseInLocation(model.DateOnly, "2030-03-03", time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(rentalForUpdate).
		WithArgs(uint64(5)).
		WillReturnRows(pendingRentalRow(t, 5, model.RentalStatusPending))
	// Another overlapping rental was accepted since booking; no status
	// update may run.
	mock.ExpectQuery(availForUpdate).
		WithArgs(uint64(7), end, start, uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/rentals/5/approve", "")
	c.Set("role", model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.ApproveRental(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "car is already rented during that period", decodeBody(t, rec)["error"])
	assert.Empty(t, published)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveRentalAlreadyDecided(t *testing.T) {
	h, mock := newAdminMocks(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(rentalForUpdate).
		WithArgs(uint64(5)).
		WillReturnRows(pendingRentalRow(t, 5, model.RentalStatusAccepted))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/rentals/5/approve", "")
	c.Set("role", model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.ApproveRental(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "rental is not pending", decodeBody(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveRentalNotFound(t *testing.T) {
	h, mock := newAdminMocks(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(rentalForUpdate).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "car_id", "start_date", "end_date",
			"total_cents", "status", "created_at", "updated_at",
		}))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/rentals/99/approve", "")
	c.Set("role", model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("99")

	require.NoError(t, h.ApproveRental(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectRentalSuccess(t *testing.T) {
	h, mock := newAdminMocks(t, nil)

	mock.ExpectExec("UPDATE rentals SET status = 'REJECTED' WHERE id = ? AND status = 'PENDING'").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/rentals/5/reject", "")
	c.Set("role", model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.RejectRental(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rental request rejected", decodeBody(t, rec)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
