package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pickupgames/backend/internal/service"
)

func TestAttendanceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrGameNotFound, http.StatusNotFound},
		{service.ErrAttendeeNotFound, http.StatusNotFound},
		{service.ErrNotHost, http.StatusForbidden},
		{service.ErrAlreadyJoined, http.StatusBadRequest},
		{service.ErrNotJoined, http.StatusBadRequest},
		{service.ErrJoinWindowClosed, http.StatusBadRequest},
		{service.ErrCapacityBelowConfirmed, http.StatusBadRequest},
		{service.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if err := attendanceError(c, tc.err); err != nil {
				t.Fatalf("attendanceError: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("%v: status %d, want %d", tc.err, rec.Code, tc.code)
			}
		})
	}
}
