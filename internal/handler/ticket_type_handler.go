package handler

import (
	"net/http"

	"event-ticketing/internal/model"
	"event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type TicketTypeHandler struct {
	service service.TicketTypeService
}

func NewTicketTypeHandler(service service.TicketTypeService) *TicketTypeHandler {
	return &TicketTypeHandler{service: service}
}

func (h *TicketTypeHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("ticket-types", h.CreateTicketType)
		router.GET("ticket-types", h.ListTicketTypes)
		router.GET("ticket-types/:id", h.GetTicketType)
		router.GET("events/:id/ticket-types", h.ListTicketTypesByEvent)
	}
}

func (h *TicketTypeHandler) CreateTicketType(c *gin.Context) {
	var req model.CreateTicketTypeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.CreateTicketType(c, req)
	if err != nil {
		respondError(c, err, "CreateTicketType")
		return
	}

	respondSuccess(c, created, http.StatusCreated)
}

func (h *TicketTypeHandler) GetTicketType(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	ticketType, err := h.service.GetTicketType(c, id)
	if err != nil {
		respondError(c, err, "GetTicketType")
		return
	}

	respondSuccess(c, ticketType, http.StatusOK)
}

func (h *TicketTypeHandler) ListTicketTypes(c *gin.Context) {
	ticketTypes, err := h.service.ListTicketTypes(c)
	if err != nil {
		respondError(c, err, "ListTicketTypes")
		return
	}

	respondSuccess(c, ticketTypes, http.StatusOK)
}

func (h *TicketTypeHandler) ListTicketTypesByEvent(c *gin.Context) {
	eventID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	ticketTypes, err := h.service.ListTicketTypesByEvent(c, eventID)
	if err != nil {
		respondError(c, err, "ListTicketTypesByEvent")
		return
	}

	respondSuccess(c, ticketTypes, http.StatusOK)
}
