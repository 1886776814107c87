package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/court-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/court-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register,
	// login and the two refresh flavors.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotating refresh: revokes the presented token and issues a new pair.
	g.POST("/refresh", a.Refresh)
	// Non-rotating refresh: issues a new access token only.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (revoke all sessions) or a
	// refresh_token body (revoke one); it does not require the JWT
	// middleware.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	// Protected endpoints under /v1 require a valid access token and a
	// known role.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "MEMBER"))
	auth.GET("/me", a.Me)
}

// RegisterBooking registers the court booking API: the slot catalog,
// session listings, booking creation, roster join/leave, the user
// directory and admin-only cancellation.  All routes require a valid
// access token; cancellation additionally requires the ADMIN role
// (the booking service itself performs no ownership check).
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, u *handler.UserHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "MEMBER"))

	// Slot catalog (fixed, but served so clients never hardcode it).
	g.GET("/slots", b.ListSlots)

	// Upcoming sessions, flat and partitioned by sport.
	g.GET("/sessions", b.ListSessions)
	// Book a court.
	g.POST("/sessions", b.CreateSession)
	// Roster mutations.
	g.POST("/sessions/:id/join", b.JoinSession)
	g.POST("/sessions/:id/leave", b.LeaveSession)

	// Display-name directory.
	g.GET("/users", u.ListNames)
	g.PUT("/me/name", u.SetName)

	// Cancellation is admin-only.
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.DELETE("/sessions/:id", b.CancelSession)
}
