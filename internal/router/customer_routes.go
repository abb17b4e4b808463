package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental/internal/handler"
	"github.com/iliyamo/car-rental/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All routes
// require a valid JWT.  Customers request rentals for date ranges, manage a
// session cart, submit the cart for approval and view their own rental
// history.  Administrators may use these endpoints too, matching how staff
// accounts also book cars.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", "ADMIN"),
	)
	// Note: GET /v1/cars and GET /v1/cars/:id are registered on the public
	// router so that guests can browse the fleet.  Customer-specific
	// endpoints begin here.
	g.POST("/cars/:id/rent", h.RentCar)
	g.POST("/cars/:id/cart", h.QuickAdd)
	g.GET("/cart", h.GetCart)
	g.DELETE("/cart/:index", h.RemoveFromCart)
	g.POST("/cart/checkout", h.Checkout)
	g.GET("/rentals", h.MyRentals)
}
