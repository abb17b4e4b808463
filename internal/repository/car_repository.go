// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for the car catalog.  Cars carry a
// unique license plate enforced by the database; the repository maps the
// MySQL duplicate-key error onto ErrPlateExists so handlers can respond
// with a conflict instead of a generic failure.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values
	"strings"      // strings detects the MySQL duplicate-key error code
	"time"         // time carries the availability filter date

	"github.com/iliyamo/car-rental/internal/model"
)

// ErrCarNotFound is returned when a car cannot be found in the DB.
var ErrCarNotFound = errors.New("car not found")

// ErrPlateExists is returned when an insert collides with an existing
// license plate.
var ErrPlateExists = errors.New("license plate already exists")

// CarRepo encapsulates all database queries related to cars.
type CarRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCarRepo constructs a CarRepo with the provided DB handle.  This
// function allows dependency injection of the database in tests and at
// startup.
func NewCarRepo(db *sql.DB) *CarRepo {
	return &CarRepo{db: db}
}

const carColumns = "id, name, brand, model, year, price_per_day_cents, license_plate, image_url, created_at, updated_at"

func scanCar(row interface{ Scan(...any) error }) (*model.Car, error) {
	var c model.Car
	var imageURL sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Brand, &c.Model, &c.Year,
		&c.PricePerDayCents, &c.LicensePlate, &imageURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		u := imageURL.String
		c.ImageURL = &u
	}
	return &c, nil
}

// Create inserts a new car into the database.  On success the car's ID
// field is populated with the auto-generated value and a follow-up SELECT
// fills the timestamp defaults so callers receive a fully populated record.
func (r *CarRepo) Create(ctx context.Context, c *model.Car) error {
	const qInsert = "INSERT INTO cars (name, brand, model, year, price_per_day_cents, license_plate, image_url) VALUES (?, ?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert,
		c.Name, c.Brand, c.Model, c.Year, c.PricePerDayCents, c.LicensePlate, c.ImageURL)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrPlateExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	const qSelect = "SELECT " + carColumns + " FROM cars WHERE id = ?"
	fresh, err := scanCar(r.db.QueryRowContext(ctx, qSelect, c.ID))
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

// GetByID fetches a car by its ID.  It returns ErrCarNotFound if no row
// is found.
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (*model.Car, error) {
	const q = "SELECT " + carColumns + " FROM cars WHERE id = ?"
	c, err := scanCar(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns the whole catalog ordered by id.
func (r *CarRepo) List(ctx context.Context) ([]*model.Car, error) {
	const q = "SELECT " + carColumns + " FROM cars ORDER BY id"
	return r.queryCars(ctx, q)
}

// ListAvailableOn returns cars that have no accepted rental covering the
// given date.  This backs the customer catalog view: a car mid-way through
// an accepted rental on that day is hidden, everything else is shown.
func (r *CarRepo) ListAvailableOn(ctx context.Context, day time.Time) ([]*model.Car, error) {
	const q = `SELECT ` + carColumns + ` FROM cars c
	           WHERE NOT EXISTS (
	               SELECT 1 FROM rentals r
	               WHERE r.car_id = c.id
	                 AND r.status = 'ACCEPTED'
	                 AND r.start_date <= ?
	                 AND r.end_date >= ?
	           )
	           ORDER BY c.id`
	return r.queryCars(ctx, q, day, day)
}

func (r *CarRepo) queryCars(ctx context.Context, q string, args ...any) ([]*model.Car, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cars := make([]*model.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cars, nil
}

// Update edits the mutable display fields of a car: name, daily price and
// image reference.  Identity fields (brand, model, year, plate) stay fixed
// after creation.  Returns ErrCarNotFound when the id does not exist.
func (r *CarRepo) Update(ctx context.Context, id uint64, name string, priceCents uint32, imageURL *string) error {
	const q = "UPDATE cars SET name = ?, price_per_day_cents = ?, image_url = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, name, priceCents, imageURL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing row" from "no change": a same-values update
		// also reports zero affected rows under MySQL defaults.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a car from the catalog.  Returns ErrCarNotFound when the
// id does not exist.
func (r *CarRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cars WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCarNotFound
	}
	return nil
}
