package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental/internal/model"
	"github.com/iliyamo/car-rental/internal/repository"
)

// CatalogHandler serves the public car catalog.  No authentication is
// required so guests can browse the fleet before registering.
type CatalogHandler struct {
	Cars *repository.CarRepo
}

// NewCatalogHandler constructs a CatalogHandler and panics on a nil
// repository.
func NewCatalogHandler(cars *repository.CarRepo) *CatalogHandler {
	if cars == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Cars: cars}
}

// ListCars handles GET /v1/cars.  Without parameters it returns the whole
// catalog.  With ?available_on=YYYY-MM-DD (or available_on=today) it
// returns only cars that are not mid-way through an accepted rental on
// that day.
func (h *CatalogHandler) ListCars(c echo.Context) error {
	param := c.QueryParam("available_on")
	if param == "" {
		cars, err := h.Cars.List(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": cars})
	}

	var day time.Time
	if param == "today" {
		day = time.Now().UTC().Truncate(24 * time.Hour)
	} else {
		var err error
		day, err = time.ParseInLocation(model.DateOnly, param, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format"})
		}
	}
	cars, err := h.Cars.ListAvailableOn(c.Request().Context(), day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": cars, "available_on": day.Format(model.DateOnly)})
}

// GetCar handles GET /v1/cars/:id and returns a single catalog entry.
func (h *CatalogHandler) GetCar(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	car, err := h.Cars.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, car)
}
