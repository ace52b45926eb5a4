package handler

import (
	"net/http"

	"event-ticketing/internal/model"
	"event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("orders", h.CreateOrder)
		router.GET("orders/:id", h.GetOrder)
		router.POST("orders/:id/payment", h.ProcessPayment)
		router.POST("orders/:id/refund", h.RefundOrder)
		router.GET("orders/:id/tickets", h.ListTickets)
		router.GET("customers/:id/orders", h.ListOrdersByCustomer)
		router.POST("tickets/:code/validate", h.ValidateTicket)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req model.CreateOrderRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.CreateOrder(c, req)
	if err != nil {
		respondError(c, err, "CreateOrder")
		return
	}

	respondSuccess(c, created, http.StatusCreated)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c, id)
	if err != nil {
		respondError(c, err, "GetOrder")
		return
	}

	respondSuccess(c, order, http.StatusOK)
}

func (h *OrderHandler) ProcessPayment(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.ProcessPaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	outcome, err := h.service.ProcessPayment(c, id, req)
	if err != nil {
		respondError(c, err, "ProcessPayment")
		return
	}

	// 拒付不是 HTTP 錯誤：訂單已轉 FAILED, 422 告知呼叫端付款沒過
	if !outcome.Paid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"order":         outcome.Order,
			"error_code":    outcome.GatewayErrorCode,
			"error_message": outcome.GatewayErrorMessage,
		})
		return
	}

	respondSuccess(c, gin.H{
		"order":   outcome.Order,
		"tickets": outcome.Tickets,
	}, http.StatusOK)
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) RefundOrder(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req refundRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	refunded, err := h.service.RefundOrder(c, id, req.Reason)
	if err != nil {
		respondError(c, err, "RefundOrder")
		return
	}

	respondSuccess(c, refunded, http.StatusOK)
}

func (h *OrderHandler) ListTickets(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	tickets, err := h.service.ListTicketsByOrder(c, id)
	if err != nil {
		respondError(c, err, "ListTickets")
		return
	}

	respondSuccess(c, tickets, http.StatusOK)
}

func (h *OrderHandler) ListOrdersByCustomer(c *gin.Context) {
	customerID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	orders, err := h.service.ListOrdersByCustomer(c, customerID)
	if err != nil {
		respondError(c, err, "ListOrdersByCustomer")
		return
	}

	respondSuccess(c, orders, http.StatusOK)
}

func (h *OrderHandler) ValidateTicket(c *gin.Context) {
	code := c.Param("code")

	ticket, err := h.service.ValidateTicket(c, code)
	if err != nil {
		respondError(c, err, "ValidateTicket")
		return
	}

	respondSuccess(c, ticket, http.StatusOK)
}
