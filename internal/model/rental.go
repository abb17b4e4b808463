package model

import "time"

// Rental statuses.  A rental is created as PENDING at checkout and
// moves to ACCEPTED only through an admin approval that re-checks
// availability.  REJECTED is a terminal status; rejected records are
// kept so the request history survives.
const (
	RentalStatusPending  = "PENDING"
	RentalStatusAccepted = "ACCEPTED"
	RentalStatusRejected = "REJECTED"
)

// DateOnly is the wire and storage format for rental dates.  Rentals
// span whole days; both bounds are inclusive.
const DateOnly = "2006-01-02"

// Rental records a user's request to rent a car for an inclusive date
// range.  The total price is captured at booking time from the car's
// then-current daily price and is never recomputed afterwards.
//
// Fields:
//  ID         - primary key identifier.
//  UserID     - user who requested the rental.
//  CarID      - car being rented.
//  StartDate  - first rental day (DATE column, midnight UTC).
//  EndDate    - last rental day, inclusive; EndDate >= StartDate.
//  TotalCents - total price for the whole stay in cents.
//  Status     - PENDING, ACCEPTED or REJECTED.
//  CreatedAt  - creation timestamp.
//  UpdatedAt  - last update timestamp.
type Rental struct {
	ID         uint64    // rentals.id
	UserID     uint64    // rentals.user_id
	CarID      uint64    // rentals.car_id
	StartDate  time.Time // rentals.start_date
	EndDate    time.Time // rentals.end_date
	TotalCents uint32    // rentals.total_cents
	Status     string    // rentals.status
	CreatedAt  time.Time // rentals.created_at
	UpdatedAt  time.Time // rentals.updated_at
}

// Overlaps reports whether the inclusive date ranges [s1,e1] and
// [s2,e2] share at least one day.  Both ranges are assumed ordered
// (start <= end).  The predicate is symmetric in its two ranges.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !e1.Before(s2)
}

// RentalDays returns the number of billable days in the inclusive
// range [start,end].  A single-day rental counts as one day.
func RentalDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// RentalTotalCents computes the total price for a stay of the given
// length at the given daily price.
func RentalTotalCents(perDayCents uint32, days int) uint32 {
	return perDayCents * uint32(days)
}
