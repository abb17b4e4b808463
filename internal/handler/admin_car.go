package handler // handler package contains admin catalog handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental/internal/model"
	"github.com/iliyamo/car-rental/internal/repository"
)

// CreateCar handles POST /v1/admin/cars and adds a car to the catalog.
// All identity fields are required; the license plate must be unique
// across the fleet.
func (h *AdminHandler) CreateCar(c echo.Context) error {
	var body struct {
		Name             string  `json:"name"`
		Brand            string  `json:"brand"`
		Model            string  `json:"model"`
		Year             int     `json:"year"`
		PricePerDayCents uint32  `json:"price_per_day_cents"`
		LicensePlate     string  `json:"license_plate"`
		ImageURL         *string `json:"image_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Brand = strings.TrimSpace(body.Brand)
	body.Model = strings.TrimSpace(body.Model)
	body.LicensePlate = strings.ToUpper(strings.TrimSpace(body.LicensePlate))
	if body.Name == "" || body.Brand == "" || body.Model == "" || body.LicensePlate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, brand, model and license_plate are required"})
	}
	if body.Year <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year must be a positive number"})
	}

	car := &model.Car{
		Name:             body.Name,
		Brand:            body.Brand,
		Model:            body.Model,
		Year:             body.Year,
		PricePerDayCents: body.PricePerDayCents,
		LicensePlate:     body.LicensePlate,
		ImageURL:         body.ImageURL,
	}
	if err := h.Cars.Create(c.Request().Context(), car); err != nil {
		if errors.Is(err, repository.ErrPlateExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a car with this license plate already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create car"})
	}
	return c.JSON(http.StatusCreated, car)
}

// UpdateCar handles PATCH /v1/admin/cars/:id and edits the mutable
// display fields: name, daily price and image.  Identity fields stay
// fixed after creation.
func (h *AdminHandler) UpdateCar(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	var body struct {
		Name             string  `json:"name"`
		PricePerDayCents uint32  `json:"price_per_day_cents"`
		ImageURL         *string `json:"image_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx := c.Request().Context()
	if err := h.Cars.Update(ctx, id, body.Name, body.PricePerDayCents, body.ImageURL); err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Cars.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteCar handles DELETE /v1/admin/cars/:id and removes a car from the
// catalog.
func (h *AdminHandler) DeleteCar(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	if err := h.Cars.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "car deleted",
	})
}
