package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-reservation/internal/repository"
)

// envelope is the uniform response body of every API endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

// failErr translates a store error into a status code and a client-facing
// message.  Unknown errors are logged and reported as 500.
func failErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrConcertNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusConflict, repository.ErrEmailExists.Error())
	case errors.Is(err, repository.ErrConcertHasReservations):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrSoldOut):
		return fail(c, http.StatusBadRequest, "Concert is sold out")
	case errors.Is(err, repository.ErrNotEnoughSeats):
		return fail(c, http.StatusBadRequest, "Not enough available seats")
	case errors.Is(err, repository.ErrDuplicateReservation):
		return fail(c, http.StatusBadRequest, "User already has a reservation for this concert")
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return fail(c, http.StatusBadRequest, "Reservation is already cancelled")
	case errors.Is(err, repository.ErrSeatsBelowReserved),
		errors.Is(err, repository.ErrInvalidSeatCount):
		return fail(c, http.StatusBadRequest, err.Error())
	}
	c.Logger().Errorf("unhandled error on %s %s: %v", c.Request().Method, c.Path(), err)
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// dateLayouts are the ISO 8601 forms a concert date may take.  Layouts
// without an offset, such as a datetime-local value, are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
