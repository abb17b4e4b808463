package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental/internal/handler"
)

// RegisterCatalog registers unauthenticated browse endpoints on the provided
// Echo instance.  The CatalogHandler returns the car fleet for guest users;
// no JWT or role middleware is applied so visitors can browse before
// registering.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler) {
	// Expose the full fleet.  The optional ?available_on=YYYY-MM-DD query
	// parameter (or the literal "today") narrows the list to cars with no
	// accepted rental covering that day.
	e.GET("/v1/cars", h.ListCars)
	// Car details by id.
	e.GET("/v1/cars/:id", h.GetCar)
}
