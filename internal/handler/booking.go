package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental/internal/cart"
	"github.com/iliyamo/car-rental/internal/model"
	"github.com/iliyamo/car-rental/internal/repository"
)

// CartStore is the slice of the session cart the booking handler needs.
// *cart.Store implements it; tests substitute an in-memory fake.
type CartStore interface {
	List(ctx context.Context, userID uint64) ([]model.CartEntry, error)
	Append(ctx context.Context, userID uint64, e model.CartEntry) error
	RemoveAt(ctx context.Context, userID uint64, idx int) (model.CartEntry, error)
	Clear(ctx context.Context, userID uint64) error
}

// BookingHandler implements the customer booking flow: building a session
// cart of rental intents and checking it out into pending rentals.  All
// methods assume JWT authentication and role validation have already been
// performed by middleware.
type BookingHandler struct {
	Cars    *repository.CarRepo
	Rentals *repository.RentalRepo
	Cart    CartStore
}

// NewBookingHandler constructs a BookingHandler with the provided
// dependencies.  All dependencies must be non-nil.
func NewBookingHandler(cars *repository.CarRepo, rentals *repository.RentalRepo, cartStore CartStore) *BookingHandler {
	if cars == nil || rentals == nil || cartStore == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Cars: cars, Rentals: rentals, Cart: cartStore}
}

// today returns the current UTC date truncated to midnight, the reference
// point for the "start date must not be in the past" rule.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// RentCar handles POST /v1/cars/:id/rent.  The body carries a start and
// end date; on success a priced, dated intent is appended to the caller's
// cart.  Validation failures (malformed dates, inverted range, past
// start) and availability conflicts each produce their own user-facing
// error and leave the cart untouched.
func (h *BookingHandler) RentCar(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	carID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || carID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	var body struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := time.ParseInLocation(model.DateOnly, body.StartDate, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format"})
	}
	end, err := time.ParseInLocation(model.DateOnly, body.EndDate, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end date cannot be before start date"})
	}
	if start.Before(today()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start date cannot be in the past"})
	}

	ctx := c.Request().Context()
	car, err := h.Cars.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	available, err := h.Rentals.IsAvailable(ctx, car.ID, start, end, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	if !available {
		return c.JSON(http.StatusConflict, echo.Map{"error": "car is not available in the selected date range"})
	}

	// Also guard against the caller's own cart: two dated intents for the
	// same car must not overlap, or checkout would create conflicting
	// requests.
	entries, err := h.Cart.List(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
	}
	for _, e := range entries {
		if e.Kind != model.CartEntryDated || e.CarID != car.ID {
			continue
		}
		s, err1 := time.ParseInLocation(model.DateOnly, e.StartDate, time.UTC)
		t, err2 := time.ParseInLocation(model.DateOnly, e.EndDate, time.UTC)
		if err1 != nil || err2 != nil {
			continue
		}
		if model.Overlaps(start, end, s, t) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "range overlaps an entry already in your cart"})
		}
	}

	days := model.RentalDays(start, end)
	entry := model.CartEntry{
		Kind:       model.CartEntryDated,
		CarID:      car.ID,
		CarName:    car.Name,
		TotalCents: model.RentalTotalCents(car.PricePerDayCents, days),
		StartDate:  start.Format(model.DateOnly),
		EndDate:    end.Format(model.DateOnly),
		Days:       days,
	}
	if err := h.Cart.Append(ctx, userID, entry); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status":  "success",
		"message": fmt.Sprintf("%s added for %d day(s)", car.Name, days),
		"entry":   entry,
	})
}

// QuickAdd handles POST /v1/cars/:id/cart.  It appends an undated intent
// carrying the car's daily price.  Adding a car that is already in the
// cart is reported as a warning without creating a second entry.
func (h *BookingHandler) QuickAdd(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	carID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || carID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}

	ctx := c.Request().Context()
	car, err := h.Cars.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	entries, err := h.Cart.List(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
	}
	for _, e := range entries {
		if e.CarID == car.ID {
			return c.JSON(http.StatusOK, echo.Map{
				"status":  "warning",
				"message": "car already in cart",
			})
		}
	}

	entry := model.CartEntry{
		Kind:        model.CartEntryQuick,
		CarID:       car.ID,
		CarName:     car.Name,
		TotalCents:  car.PricePerDayCents,
		PerDayCents: car.PricePerDayCents,
	}
	if err := h.Cart.Append(ctx, userID, entry); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status":  "success",
		"message": fmt.Sprintf("%s added to cart", car.Name),
		"entry":   entry,
	})
}

// GetCart handles GET /v1/cart.  It returns the session cart with its
// running total plus the caller's persisted rentals, mirroring the
// original cart page.
func (h *BookingHandler) GetCart(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	entries, err := h.Cart.List(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
	}
	rentals, err := h.Rentals.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       entries,
		"total_cents": cart.Total(entries),
		"rentals":     rentals,
	})
}

// RemoveFromCart handles DELETE /v1/cart/:index.  The index is the
// zero-based position in the cart; anything out of range is a reported
// error and the cart stays as it was.
func (h *BookingHandler) RemoveFromCart(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cart index"})
	}
	removed, err := h.Cart.RemoveAt(c.Request().Context(), userID, idx)
	if err != nil {
		if errors.Is(err, cart.ErrIndexOutOfRange) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "item not found in cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": fmt.Sprintf("removed %s from cart", removed.CarName),
	})
}

// Checkout handles POST /v1/cart/checkout.  Every dated entry becomes a
// PENDING rental in one transaction; on any failure nothing is persisted
// and the cart stays intact.  An empty cart is a reported error, and a
// cart still holding quick-add entries is refused with their positions so
// the customer can date or remove them.
func (h *BookingHandler) Checkout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	entries, err := h.Cart.List(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
	}
	if len(entries) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}

	var undated []int
	rentals := make([]*model.Rental, 0, len(entries))
	for i, e := range entries {
		if e.Kind != model.CartEntryDated {
			undated = append(undated, i)
			continue
		}
		start, err1 := time.ParseInLocation(model.DateOnly, e.StartDate, time.UTC)
		end, err2 := time.ParseInLocation(model.DateOnly, e.EndDate, time.UTC)
		if err1 != nil || err2 != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt cart entry"})
		}
		rentals = append(rentals, &model.Rental{
			UserID:     userID,
			CarID:      e.CarID,
			StartDate:  start,
			EndDate:    end,
			TotalCents: e.TotalCents,
		})
	}
	if len(undated) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "cart contains entries without dates; set dates or remove them before checkout",
			"positions": undated,
		})
	}

	tx, err := h.Rentals.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Rentals.CreatePendingBulkTx(ctx, tx, rentals); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create rentals"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	if err := h.Cart.Clear(ctx, userID); err != nil {
		// Rentals are persisted; an uncleared cart is an annoyance, not a
		// correctness problem.
		log.Printf("checkout: failed to clear cart for user %d: %v", userID, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status":  "success",
		"message": "rental request received, awaiting approval",
		"created": len(rentals),
	})
}

// MyRentals handles GET /v1/rentals and lists the caller's rentals.
func (h *BookingHandler) MyRentals(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rentals, err := h.Rentals.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rentals})
}
