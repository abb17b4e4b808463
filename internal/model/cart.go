package model

// Cart entry kinds.  The session cart holds two differently shaped
// intents: a dated entry produced by the rental flow, carrying the
// full range and a computed total, and a quick-add entry carrying
// only the car's daily price.  Checkout converts dated entries into
// pending rentals; quick entries cannot be checked out until the
// customer re-adds the car with a date range.
const (
	CartEntryDated = "dated"
	CartEntryQuick = "quick"
)

// CartEntry is an ephemeral rental intent stored in the session cart.
// It is serialized to JSON in redis and never persisted to the
// database.  For dated entries TotalCents is days * the car's daily
// price at add time; for quick entries it equals PerDayCents so the
// cart total stays meaningful.
type CartEntry struct {
	Kind        string `json:"kind"`
	CarID       uint64 `json:"car_id"`
	CarName     string `json:"car_name"`
	TotalCents  uint32 `json:"total_cents"`
	PerDayCents uint32 `json:"per_day_cents,omitempty"`
	StartDate   string `json:"start_date,omitempty"` // DateOnly format
	EndDate     string `json:"end_date,omitempty"`   // DateOnly format
	Days        int    `json:"days,omitempty"`
}
