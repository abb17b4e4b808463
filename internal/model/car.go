package model

import "time"

// Car represents a rentable vehicle in the catalog as stored in the
// `cars` table.  Identity fields (brand, model, year, license plate)
// are set at creation; display name, daily price and image may be
// edited by an administrator afterwards.
//
// Fields:
//  ID               - primary key identifier.
//  Name             - display name shown to customers.
//  Brand            - manufacturer name.
//  Model            - model name.
//  Year             - production year.
//  PricePerDayCents - rental price per day in cents.
//  LicensePlate     - unique license plate.
//  ImageURL         - optional image reference (nullable).
//  CreatedAt        - creation timestamp.
//  UpdatedAt        - last update timestamp.
type Car struct {
	ID               uint64    `json:"id"`                  // cars.id
	Name             string    `json:"name"`                // cars.name
	Brand            string    `json:"brand"`               // cars.brand
	Model            string    `json:"model"`               // cars.model
	Year             int       `json:"year"`                // cars.year
	PricePerDayCents uint32    `json:"price_per_day_cents"` // cars.price_per_day_cents
	ImageURL         *string   `json:"image_url,omitempty"` // cars.image_url (nullable)
	LicensePlate     string    `json:"license_plate"`       // cars.license_plate
	CreatedAt        time.Time `json:"-"`                   // cars.created_at
	UpdatedAt        time.Time `json:"-"`                   // cars.updated_at
}
