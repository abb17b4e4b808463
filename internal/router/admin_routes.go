package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental/internal/handler"    // admin handlers
	"github.com/iliyamo/car-rental/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
// All routes require a valid JWT and ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Rental decisions ----
	g.GET("/rentals", a.ListRentals) // optional ?status= filter
	g.POST("/rentals/:id/approve", a.ApproveRental)
	g.POST("/rentals/:id/reject", a.RejectRental)

	// ---- Fleet maintenance ----
	g.POST("/cars", a.CreateCar)
	g.PUT("/cars/:id", a.UpdateCar)
	g.PATCH("/cars/:id", a.UpdateCar) // alias for clients that use PATCH
	g.DELETE("/cars/:id", a.DeleteCar)
}
