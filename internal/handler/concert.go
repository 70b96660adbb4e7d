package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-reservation/internal/model"
	"github.com/iliyamo/concert-reservation/internal/repository"
)

// ConcertHandler exposes the concert catalog.  Deletion goes through the
// reservation ledger so a concert with confirmed reservations cannot
// disappear underneath them.
type ConcertHandler struct {
	Concerts     *repository.ConcertRepo
	Reservations *repository.ReservationRepo
}

// NewConcertHandler constructs a ConcertHandler and panics if any
// dependency is nil.
func NewConcertHandler(concerts *repository.ConcertRepo, reservations *repository.ReservationRepo) *ConcertHandler {
	if concerts == nil || reservations == nil {
		panic("nil repository passed to NewConcertHandler")
	}
	return &ConcertHandler{Concerts: concerts, Reservations: reservations}
}

// concertBody is shared by create and update.  Pointer fields distinguish
// "absent" from a zero value, which partial updates rely on.
type concertBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Venue       *string `json:"venue"`
	TotalSeats  *int    `json:"totalSeats"`
}

// ListConcerts handles GET /v1/concerts.
func (h *ConcertHandler) ListConcerts(c echo.Context) error {
	return ok(c, http.StatusOK, h.Concerts.List(), "Concerts retrieved successfully")
}

// GetConcert handles GET /v1/concerts/:id.
func (h *ConcertHandler) GetConcert(c echo.Context) error {
	concert, err := h.Concerts.GetByID(c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, concert, "Concert retrieved successfully")
}

// CreateConcert handles POST /v1/concerts.  Every field is required and
// totalSeats must be at least 1.
func (h *ConcertHandler) CreateConcert(c echo.Context) error {
	var body concertBody
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	switch {
	case body.Name == nil || strings.TrimSpace(*body.Name) == "":
		return fail(c, http.StatusBadRequest, "name is required")
	case body.Description == nil:
		return fail(c, http.StatusBadRequest, "description is required")
	case body.Venue == nil || strings.TrimSpace(*body.Venue) == "":
		return fail(c, http.StatusBadRequest, "venue is required")
	case body.Date == nil:
		return fail(c, http.StatusBadRequest, "date is required")
	case body.TotalSeats == nil || *body.TotalSeats < 1:
		return fail(c, http.StatusBadRequest, "totalSeats must be at least 1")
	}
	date, valid := parseDate(*body.Date)
	if !valid {
		return fail(c, http.StatusBadRequest, "date must be an ISO 8601 date")
	}
	concert := h.Concerts.Create(*body.Name, *body.Description, date, *body.Venue, *body.TotalSeats)
	return ok(c, http.StatusCreated, concert, "Concert created successfully")
}

// UpdateConcert handles PUT/PATCH /v1/concerts/:id.  Only the fields present
// in the body change.
func (h *ConcertHandler) UpdateConcert(c echo.Context) error {
	var body concertBody
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	patch := model.ConcertPatch{
		Name:        body.Name,
		Description: body.Description,
		Venue:       body.Venue,
		TotalSeats:  body.TotalSeats,
	}
	if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
		return fail(c, http.StatusBadRequest, "name cannot be empty")
	}
	if body.Venue != nil && strings.TrimSpace(*body.Venue) == "" {
		return fail(c, http.StatusBadRequest, "venue cannot be empty")
	}
	if body.TotalSeats != nil && *body.TotalSeats < 1 {
		return fail(c, http.StatusBadRequest, "totalSeats must be at least 1")
	}
	if body.Date != nil {
		date, valid := parseDate(*body.Date)
		if !valid {
			return fail(c, http.StatusBadRequest, "date must be an ISO 8601 date")
		}
		patch.Date = &date
	}
	concert, err := h.Concerts.Update(c.Param("id"), patch)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, concert, "Concert updated successfully")
}

// DeleteConcert handles DELETE /v1/concerts/:id.  It answers 409 while the
// concert still has confirmed reservations.
func (h *ConcertHandler) DeleteConcert(c echo.Context) error {
	if err := h.Reservations.RetireConcert(c.Param("id")); err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, nil, "Concert deleted successfully")
}
