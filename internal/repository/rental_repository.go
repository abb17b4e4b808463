package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/car-rental/internal/model"
)

// ErrRentalNotFound is returned when a rental id does not exist.
var ErrRentalNotFound = errors.New("rental not found")

// RentalRepo provides persistence for rental records and the availability
// check that guards both booking and admin approval.  Two accepted rentals
// for the same car must never overlap; the repository enforces this by
// re-running the overlap query inside the approval transaction with the
// candidate rows locked.  All dates are DATE columns interpreted as
// inclusive bounds in UTC.
type RentalRepo struct {
	db *sql.DB
}

// NewRentalRepo returns a new RentalRepo bound to the given database.
func NewRentalRepo(db *sql.DB) *RentalRepo { return &RentalRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span multiple repository calls.
func (r *RentalRepo) DB() *sql.DB { return r.db }

const overlapCond = "car_id = ? AND status = 'ACCEPTED' AND start_date <= ? AND end_date >= ?"

// IsAvailable reports whether the car has no accepted rental overlapping
// the inclusive range [start,end].  A candidate range [S,E] conflicts with
// an existing [S',E'] iff S <= E' and E >= S'.  excludeRentalID (0 = none)
// removes one rental from the search so a rental can be re-validated
// against everything but itself during approval.  The check has no side
// effects; it must be repeated at approval time because other rentals may
// have been accepted since booking.
func (r *RentalRepo) IsAvailable(ctx context.Context, carID uint64, start, end time.Time, excludeRentalID uint64) (bool, error) {
	return isAvailable(ctx, r.db, carID, start, end, excludeRentalID, false)
}

// IsAvailableTx is the transactional variant of IsAvailable.  It locks the
// matching accepted rows (FOR UPDATE) so a concurrent approval for an
// overlapping range on the same car cannot interleave between the check
// and the status update.
func (r *RentalRepo) IsAvailableTx(ctx context.Context, tx *sql.Tx, carID uint64, start, end time.Time, excludeRentalID uint64) (bool, error) {
	return isAvailable(ctx, tx, carID, start, end, excludeRentalID, true)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isAvailable(ctx context.Context, q querier, carID uint64, start, end time.Time, excludeRentalID uint64, forUpdate bool) (bool, error) {
	query := "SELECT COUNT(*) FROM rentals WHERE " + overlapCond
	args := []any{carID, end, start}
	if excludeRentalID != 0 {
		query += " AND id <> ?"
		args = append(args, excludeRentalID)
	}
	if forUpdate {
		query += " FOR UPDATE"
	}
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

const rentalColumns = "id, user_id, car_id, start_date, end_date, total_cents, status, created_at, updated_at"

func scanRental(row interface{ Scan(...any) error }) (*model.Rental, error) {
	var m model.Rental
	if err := row.Scan(&m.ID, &m.UserID, &m.CarID, &m.StartDate, &m.EndDate,
		&m.TotalCents, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID fetches a rental by id, returning ErrRentalNotFound when absent.
func (r *RentalRepo) GetByID(ctx context.Context, id uint64) (*model.Rental, error) {
	const q = "SELECT " + rentalColumns + " FROM rentals WHERE id = ?"
	m, err := scanRental(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRentalNotFound
	}
	return m, err
}

// GetByIDTx fetches a rental inside an open transaction and locks its row
// so the status cannot change under a concurrent decision.
func (r *RentalRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Rental, error) {
	const q = "SELECT " + rentalColumns + " FROM rentals WHERE id = ? FOR UPDATE"
	m, err := scanRental(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRentalNotFound
	}
	return m, err
}

// ApproveTx transitions a PENDING rental to ACCEPTED within the provided
// transaction.  The caller must already have re-checked availability in
// the same transaction (IsAvailableTx with the rental excluded).  Returns
// ErrNotPending when the rental has left the PENDING state meanwhile.
func (r *RentalRepo) ApproveTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE rentals SET status = 'ACCEPTED' WHERE id = ? AND status = 'PENDING'", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// Reject marks a PENDING rental as REJECTED.  The record is kept so the
// request history survives; rejection is a terminal status, not a delete.
// Returns ErrRentalNotFound for unknown ids and ErrNotPending when the
// rental was already decided.
func (r *RentalRepo) Reject(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE rentals SET status = 'REJECTED' WHERE id = ? AND status = 'PENDING'", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// CreatePendingBulkTx inserts the given rentals as PENDING in a single
// statement within the provided transaction.  Checkout uses this so a
// cart becomes rentals all-or-nothing: any failure rolls back every
// entry.  Passing an empty slice has no effect and returns nil.
func (r *RentalRepo) CreatePendingBulkTx(ctx context.Context, tx *sql.Tx, rentals []*model.Rental) error {
	if len(rentals) == 0 {
		return nil
	}
	query := "INSERT INTO rentals (user_id, car_id, start_date, end_date, total_cents, status) VALUES "
	args := make([]any, 0, len(rentals)*6)
	for i, m := range rentals {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, m.UserID, m.CarID, m.StartDate, m.EndDate, m.TotalCents, model.RentalStatusPending)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// RentalDetail is a rental joined with its car's display fields, returned
// by the listing queries for customers and admins.
type RentalDetail struct {
	ID           uint64 `json:"id"`
	UserID       uint64 `json:"user_id"`
	UserEmail    string `json:"user_email,omitempty"`
	CarID        uint64 `json:"car_id"`
	CarName      string `json:"car_name"`
	LicensePlate string `json:"license_plate"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	TotalCents   uint32 `json:"total_cents"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// ListByUser returns all rentals of one user, newest first.
func (r *RentalRepo) ListByUser(ctx context.Context, userID uint64) ([]RentalDetail, error) {
	const q = `SELECT r.id, r.user_id, r.car_id, c.name, c.license_plate,
	                  r.start_date, r.end_date, r.total_cents, r.status, r.created_at
	           FROM rentals r
	           JOIN cars c ON c.id = r.car_id
	           WHERE r.user_id = ?
	           ORDER BY r.created_at DESC`
	return r.queryDetails(ctx, q, false, userID)
}

// ListAll returns every rental for the admin overview, optionally filtered
// by status.  Ordering by status groups pending requests first the way the
// original admin page sorted them.
func (r *RentalRepo) ListAll(ctx context.Context, status string) ([]RentalDetail, error) {
	q := `SELECT r.id, r.user_id, u.email, r.car_id, c.name, c.license_plate,
	             r.start_date, r.end_date, r.total_cents, r.status, r.created_at
	      FROM rentals r
	      JOIN cars c ON c.id = r.car_id
	      JOIN users u ON u.id = r.user_id`
	args := []any{}
	if status != "" {
		q += " WHERE r.status = ?"
		args = append(args, strings.ToUpper(status))
	}
	q += " ORDER BY r.status, r.created_at DESC"
	return r.queryDetails(ctx, q, true, args...)
}

func (r *RentalRepo) queryDetails(ctx context.Context, q string, withEmail bool, args ...any) ([]RentalDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]RentalDetail, 0)
	for rows.Next() {
		var d RentalDetail
		var start, end, created time.Time
		dest := []any{&d.ID, &d.UserID}
		if withEmail {
			dest = append(dest, &d.UserEmail)
		}
		dest = append(dest, &d.CarID, &d.CarName, &d.LicensePlate,
			&start, &end, &d.TotalCents, &d.Status, &created)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		d.StartDate = start.UTC().Format(model.DateOnly)
		d.EndDate = end.UTC().Format(model.DateOnly)
		d.CreatedAt = created.UTC().Format(time.RFC3339)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// RejectStartedBefore rejects every PENDING rental whose start date lies
// before the cutoff.  The nightly job uses this: a request starting in the
// past can no longer be approved into a valid stay.  Returns the number of
// rentals rejected.
func (r *RentalRepo) RejectStartedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE rentals SET status = 'REJECTED' WHERE status = 'PENDING' AND start_date < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
