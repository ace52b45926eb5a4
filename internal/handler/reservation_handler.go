package handler

import (
	"net/http"

	"event-ticketing/internal/model"
	"event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service service.ReservationService
}

func NewReservationHandler(service service.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("reservations", h.CreateReservation)
		router.GET("reservations/:id", h.GetReservation)
		router.POST("reservations/:id/cancel", h.CancelReservation)
		router.GET("customers/:id/reservations", h.ListReservationsByCustomer)
	}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req model.CreateReservationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.CreateReservation(c, req)
	if err != nil {
		respondError(c, err, "CreateReservation")
		return
	}

	respondSuccess(c, created, http.StatusCreated)
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	reservation, err := h.service.GetReservation(c, id)
	if err != nil {
		respondError(c, err, "GetReservation")
		return
	}

	respondSuccess(c, reservation, http.StatusOK)
}

func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CancelReservationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	cancelled, err := h.service.CancelReservation(c, id, req)
	if err != nil {
		respondError(c, err, "CancelReservation")
		return
	}

	respondSuccess(c, cancelled, http.StatusOK)
}

func (h *ReservationHandler) ListReservationsByCustomer(c *gin.Context) {
	customerID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	reservations, err := h.service.ListReservationsByCustomer(c, customerID)
	if err != nil {
		respondError(c, err, "ListReservationsByCustomer")
		return
	}

	respondSuccess(c, reservations, http.StatusOK)
}
