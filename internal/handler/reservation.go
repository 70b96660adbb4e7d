package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-reservation/internal/repository"
)

// ReservationHandler exposes the reservation ledger.  Events is the
// optional MySQL audit trail; when nil the events endpoint is not
// registered.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Events       *repository.EventRepo
}

// NewReservationHandler constructs a ReservationHandler.  events may be nil.
func NewReservationHandler(reservations *repository.ReservationRepo, events *repository.EventRepo) *ReservationHandler {
	if reservations == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations, Events: events}
}

// ListAll handles GET /v1/reservations/all: every reservation, cancelled
// ones included, for the admin history view.
func (h *ReservationHandler) ListAll(c echo.Context) error {
	return ok(c, http.StatusOK, h.Reservations.List(), "All reservations retrieved successfully")
}

// ListMine handles GET /v1/reservations/me?userId=.  Only confirmed
// reservations are returned.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("userId"))
	if userID == "" {
		return fail(c, http.StatusBadRequest, "userId query parameter is required")
	}
	return ok(c, http.StatusOK, h.Reservations.ListByUser(userID), "User reservations retrieved successfully")
}

// GetReservation handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	res, err := h.Reservations.GetByID(c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, res, "Reservation retrieved successfully")
}

// CreateReservation handles POST /v1/reservations/:concertId with a body of
// {"userId": "..."}.  It books exactly one seat.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	userID := strings.TrimSpace(body.UserID)
	if userID == "" {
		return fail(c, http.StatusBadRequest, "userId is required")
	}
	res, err := h.Reservations.Create(c.Request().Context(), userID, c.Param("concertId"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, res, "Reservation created successfully")
}

// CancelReservation handles DELETE /v1/reservations/:id.  The reservation is
// kept with status cancelled and its seat goes back to the concert.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	res, err := h.Reservations.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, res, "Reservation cancelled successfully")
}

// ListEvents handles GET /v1/reservations/events?limit=.  It reads the audit
// trail written by the reservation events consumer.
func (h *ReservationHandler) ListEvents(c echo.Context) error {
	if h.Events == nil {
		return fail(c, http.StatusNotFound, "reservation audit is not enabled")
	}
	limit := 100
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return fail(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	events, err := h.Events.ListRecent(c.Request().Context(), limit)
	if err != nil {
		c.Logger().Errorf("list reservation events: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to load reservation events")
	}
	return ok(c, http.StatusOK, events, "Reservation events retrieved successfully")
}
