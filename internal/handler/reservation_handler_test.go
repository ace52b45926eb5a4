package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"event-ticketing/internal/handler"
	"event-ticketing/internal/model"
	"event-ticketing/internal/service"
	"event-ticketing/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 只覆寫測試用到的方法, 其餘嵌入介面補齊
type reservationServiceStub struct {
	service.ReservationService
	createErr error
	getErr    error
}

func (s *reservationServiceStub) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (*model.Reservation, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &model.Reservation{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		EventID:    req.EventID,
		Status:     model.ReservationStatusActive,
	}, nil
}

func (s *reservationServiceStub) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &model.Reservation{ID: id, Status: model.ReservationStatusActive}, nil
}

func newReservationRouter(stub *reservationServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.NewReservationHandler(stub).RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateReservationHandler(t *testing.T) {
	validBody := model.CreateReservationRequest{
		CustomerID: uuid.New(),
		EventID:    uuid.New(),
		Items:      []model.ReservationItemRequest{{TicketTypeID: uuid.New(), Quantity: 2}},
	}

	t.Run("Success", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{})

		w := postJSON(t, router, "/api/v1/reservations", validBody)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Failed - malformed body", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - validation error maps to 400", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{
			createErr: apperrors.Validationf("quantity must be positive"),
		})

		w := postJSON(t, router, "/api/v1/reservations", validBody)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - insufficient stock maps to 409", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{
			createErr: apperrors.ErrInsufficientStock,
		})

		w := postJSON(t, router, "/api/v1/reservations", validBody)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Failed - unknown error maps to 500 without detail", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{
			createErr: apperrors.ErrInternalServerError,
		})

		w := postJSON(t, router, "/api/v1/reservations", validBody)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Internal server error")
	})
}

func TestGetReservationHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/"+uuid.New().String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failed - invalid id", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - not found maps to 404", func(t *testing.T) {
		router := newReservationRouter(&reservationServiceStub{
			getErr: apperrors.ErrReservationNotFound,
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/"+uuid.New().String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
