package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental/internal/model"
	"github.com/iliyamo/car-rental/internal/queue"
	"github.com/iliyamo/car-rental/internal/repository"
)

// ApprovedPublisher forwards a rental.approved event to the broker.  It is
// a function field so tests can stub it and main can plug in the real
// publisher; a nil publisher disables events without touching the flow.
type ApprovedPublisher func(ctx context.Context, ev queue.RentalApprovedEvent) error

// AdminHandler bundles the repositories behind the administrator surface:
// rental decisions and catalog maintenance.  Role enforcement happens in
// middleware; every method here assumes an ADMIN caller.
type AdminHandler struct {
	Cars    *repository.CarRepo
	Rentals *repository.RentalRepo
	Publish ApprovedPublisher
}

// NewAdminHandler constructs an AdminHandler.  Repositories must be
// non-nil; the publisher may be nil when the broker is not configured.
func NewAdminHandler(cars *repository.CarRepo, rentals *repository.RentalRepo, publish ApprovedPublisher) *AdminHandler {
	if cars == nil || rentals == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Cars: cars, Rentals: rentals, Publish: publish}
}

// ListRentals handles GET /v1/admin/rentals.  The optional ?status=
// parameter filters by lifecycle state; without it pending requests sort
// first.
func (h *AdminHandler) ListRentals(c echo.Context) error {
	rentals, err := h.Rentals.ListAll(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rentals})
}

// ApproveRental handles POST /v1/admin/rentals/:id/approve.  The conflict
// check runs again inside the decision transaction, with the candidate
// excluded from the search, because other rentals may have been accepted
// since the request was placed.  Check and status update commit together;
// a conflict leaves the rental PENDING and reports 409.
func (h *AdminHandler) ApproveRental(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rental id"})
	}
	ctx := c.Request().Context()

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

	rental, err := h.Rentals.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if rental.Status != model.RentalStatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "rental is not pending"})
	}

	available, err := h.Rentals.IsAvailableTx(ctx, tx, rental.CarID, rental.StartDate, rental.EndDate, rental.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	if !available {
		return c.JSON(http.StatusConflict, echo.Map{"error": "car is already rented during that period"})
	}

	if err := h.Rentals.ApproveTx(ctx, tx, rental.ID); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "rental is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	if h.Publish != nil {
		car, err := h.Cars.GetByID(ctx, rental.CarID)
		ev := queue.RentalApprovedEvent{
			RentalID:   rental.ID,
			UserID:     rental.UserID,
			CarID:      rental.CarID,
			StartDate:  rental.StartDate.Format(model.DateOnly),
			EndDate:    rental.EndDate.Format(model.DateOnly),
			TotalCents: rental.TotalCents,
			ApprovedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err == nil {
			ev.CarName = car.Name
			ev.LicensePlate = car.LicensePlate
		}
		if err := h.Publish(ctx, ev); err != nil {
			// The approval already committed; a lost event only costs the
			// downstream log line.
			log.Printf("approve: publish rental.approved failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "rental approved",
	})
}

// RejectRental handles POST /v1/admin/rentals/:id/reject.  The rental is
// marked REJECTED and kept, preserving the request history.
func (h *AdminHandler) RejectRental(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rental id"})
	}
	if err := h.Rentals.Reject(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRentalNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		case errors.Is(err, repository.ErrNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "rental is not pending"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reject failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "rental request rejected",
	})
}
