package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental/internal/model"
)

func newCarRepoMock(t *testing.T) (*CarRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCarRepo(db), mock
}

func carRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "name", "brand", "model", "year", "price_per_day_cents",
		"license_plate", "image_url", "created_at", "updated_at",
	})
}

func TestCarCreate(t *testing.T) {
	repo, mock := newCarRepoMock(t)

	mock.ExpectExec("INSERT INTO cars (name, brand, model, year, price_per_day_cents, license_plate, image_url) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs("Golf", "VW", "Golf VIII", 2023, uint32(4500), "B-XY-123", nil).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery("SELECT "+carColumns+" FROM cars WHERE id = ?").
		WithArgs(uint64(3)).
		WillReturnRows(carRows(t).AddRow(3, "Golf", "VW", "Golf VIII", 2023, 4500,
			"B-XY-123", nil, time.Now(), time.Now()))

	car := &model.Car{Name: "Golf", Brand: "VW", Model: "Golf VIII", Year: 2023,
		PricePerDayCents: 4500, LicensePlate: "B-XY-123"}
	require.NoError(t, repo.Create(context.Background(), car))
	assert.Equal(t, uint64(3), car.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarCreateDuplicatePlate(t *testing.T) {
	repo, mock := newCarRepoMock(t)

	mock.ExpectExec("INSERT INTO cars (name, brand, model, year, price_per_day_cents, license_plate, image_url) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs("Golf", "VW", "Golf VIII", 2023, uint32(4500), "B-XY-123", nil).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'B-XY-123' for key 'cars.license_plate'"))

	car := &model.Car{Name: "Golf", Brand: "VW", Model: "Golf VIII", Year: 2023,
		PricePerDayCents: 4500, LicensePlate: "B-XY-123"}
	err := repo.Create(context.Background(), car)
	assert.ErrorIs(t, err, ErrPlateExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarGetByIDMissing(t *testing.T) {
	repo, mock := newCarRepoMock(t)

	mock.ExpectQuery("SELECT "+carColumns+" FROM cars WHERE id = ?").
		WithArgs(uint64(99)).
		WillReturnRows(carRows(t))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrCarNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarListAvailableOn(t *testing.T) {
	repo, mock := newCarRepoMock(t)
	when := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT ` + carColumns + ` FROM cars c
	           WHERE NOT EXISTS (
	               SELECT 1 FROM rentals r
	               WHERE r.car_id = c.id
	                 AND r.status = 'ACCEPTED'
	                 AND r.start_date <= ?
	                 AND r.end_date >= ?
	           )
	           ORDER BY c.id`).
		WithArgs(when, when).
		WillReturnRows(carRows(t).
			AddRow(1, "Golf", "VW", "Golf VIII", 2023, 4500, "B-XY-123", nil, time.Now(), time.Now()).
			AddRow(4, "Civic", "Honda", "Civic XI", 2024, 5200, "M-AB-456", "https://cdn.example/civic.jpg", time.Now(), time.Now()))

	cars, err := repo.ListAvailableOn(context.Background(), when)
	require.NoError(t, err)
	require.Len(t, cars, 2)
	assert.Equal(t, uint64(1), cars[0].ID)
	assert.Nil(t, cars[0].ImageURL)
	require.NotNil(t, cars[1].ImageURL)
	assert.Equal(t, "https://cdn.example/civic.jpg", *cars[1].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarDeleteMissing(t *testing.T) {
	repo, mock := newCarRepoMock(t)

	mock.ExpectExec("DELETE FROM cars WHERE id = ?").
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrCarNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
