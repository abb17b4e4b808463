// Package queue defines message payloads exchanged over the message broker.
package queue

// RentalApprovedEvent is published when an administrator approves a rental.
// It carries enough information for downstream consumers to log or notify
// without querying the primary database.  EventID is assigned by the
// publisher so redeliveries can be deduplicated.
type RentalApprovedEvent struct {
	EventID      string `json:"event_id"`
	RentalID     uint64 `json:"rental_id"`
	UserID       uint64 `json:"user_id"`
	CarID        uint64 `json:"car_id"`
	CarName      string `json:"car_name"`
	LicensePlate string `json:"license_plate"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	TotalCents   uint32 `json:"total_cents"`
	ApprovedAt   string `json:"approved_at"`
}
