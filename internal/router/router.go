package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-reservation/internal/handler"
	"github.com/iliyamo/concert-reservation/internal/middleware"
	"github.com/iliyamo/concert-reservation/internal/model"
)

// Options carries the cross-cutting middleware applied to every /v1 group
// after the role check.  Nil middleware are skipped.
type Options struct {
	RoleGuard bool
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// group creates a /v1 group restricted to roles, followed by the rate
// limiter and the response cache.  Caching after the role check keeps a
// cached admin response from being served to a user.
func group(e *echo.Echo, opts Options, roles ...string) *echo.Group {
	mws := []echo.MiddlewareFunc{middleware.RequireRole(opts.RoleGuard, roles...)}
	if opts.RateLimit != nil {
		mws = append(mws, opts.RateLimit)
	}
	if opts.Cache != nil {
		mws = append(mws, opts.Cache)
	}
	return e.Group("/v1", mws...)
}

// RegisterRoutes registers routes that do not require a role.  Currently it
// exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterUsers registers the user directory endpoints.  Any role may read
// and register users; only admins may delete them.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, opts Options) {
	g := group(e, opts, model.RoleAdmin, model.RoleUser)
	g.GET("/users", h.ListUsers)
	g.GET("/users/:id", h.GetUser)
	g.POST("/users", h.CreateUser)

	admin := group(e, opts, model.RoleAdmin)
	admin.DELETE("/users/:id", h.DeleteUser)
}

// RegisterConcerts registers the catalog endpoints.  Browsing is open to
// both roles; managing concerts is admin only.
func RegisterConcerts(e *echo.Echo, h *handler.ConcertHandler, opts Options) {
	g := group(e, opts, model.RoleAdmin, model.RoleUser)
	g.GET("/concerts", h.ListConcerts)
	g.GET("/concerts/:id", h.GetConcert)

	admin := group(e, opts, model.RoleAdmin)
	admin.POST("/concerts", h.CreateConcert)
	admin.PUT("/concerts/:id", h.UpdateConcert)
	admin.PATCH("/concerts/:id", h.UpdateConcert)
	admin.DELETE("/concerts/:id", h.DeleteConcert)
}

// RegisterReservations registers the booking endpoints.  The full history
// and the audit trail are admin only; the audit route exists only when a
// database backs it.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, opts Options) {
	admin := group(e, opts, model.RoleAdmin)
	admin.GET("/reservations/all", h.ListAll)
	if h.Events != nil {
		admin.GET("/reservations/events", h.ListEvents)
	}

	g := group(e, opts, model.RoleAdmin, model.RoleUser)
	g.GET("/reservations/me", h.ListMine)
	g.GET("/reservations/:id", h.GetReservation)
	g.POST("/reservations/:concertId", h.CreateReservation)
	g.DELETE("/reservations/:id", h.CancelReservation)
}
