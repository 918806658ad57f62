package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/internal/models"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
	"github.com/noah-isme/club-api/pkg/response"
)

type reservationService interface {
	Book(ctx context.Context, req dto.BookResourceRequest) (*models.Reservation, error)
	Release(ctx context.Context, reservationID string) error
}

// ReservationHandler exposes single-window resource bookings.
type ReservationHandler struct {
	service reservationService
}

// NewReservationHandler constructs handler.
func NewReservationHandler(service reservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// Book godoc
// @Summary Book a resource for one window
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body dto.BookResourceRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Book(c *gin.Context) {
	var req dto.BookResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reservation payload"))
		return
	}
	reservation, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// Release godoc
// @Summary Release a member reservation
// @Tags Reservations
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Release(c *gin.Context) {
	if err := h.service.Release(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
