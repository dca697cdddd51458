package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/auth"
	"github.com/vasiliy-maslov/velora/internal/order"
)

// IdempotencyKeyHeader carries the client generated key of one checkout attempt.
const IdempotencyKeyHeader = "Idempotency-Key"

type OrderItemRequest struct {
	ProductID string  `json:"product" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Image     string  `json:"image"`
	Price     float64 `json:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Size      string  `json:"size,omitempty"`
}

type ShippingAddressRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"required,len=10,numeric"`
	Gender     string `json:"gender" validate:"required,oneof=Male Female Other"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country"`
}

type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required,oneof=UPI Card 'Cash on Delivery'"`
	ItemsPrice      float64                `json:"itemsPrice" validate:"gte=0"`
	ShippingPrice   float64                `json:"shippingPrice" validate:"gte=0"`
	TaxPrice        float64                `json:"taxPrice" validate:"gte=0"`
	TotalPrice      float64                `json:"totalPrice" validate:"gte=0"`
}

func (req CreateOrderRequest) toInput(idempotencyKey string) order.CreateOrderInput {
	items := make([]order.OrderItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, order.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
		})
	}
	a := req.ShippingAddress
	return order.CreateOrderInput{
		OrderItems: items,
		ShippingAddress: order.ShippingAddress{
			Name:       a.Name,
			Email:      a.Email,
			Phone:      a.Phone,
			Gender:     order.Gender(a.Gender),
			Address:    a.Address,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		},
		PaymentMethod:  order.PaymentMethod(req.PaymentMethod),
		ItemsPrice:     req.ItemsPrice,
		ShippingPrice:  req.ShippingPrice,
		TaxPrice:       req.TaxPrice,
		TotalPrice:     req.TotalPrice,
		IdempotencyKey: idempotencyKey,
	}
}

// PayRequest is optional. Missing fields are filled with defaults.
type PayRequest struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address" validate:"omitempty,email"`
}

type OrderHandler struct {
	service  order.Service
	authn    TokenAuthenticator
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, authn TokenAuthenticator) *OrderHandler {
	return &OrderHandler{
		service:  service,
		authn:    authn,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Route("/api/orders", func(r chi.Router) {
		r.Get("/track", h.handleTrackOrder)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(h.authn))

			r.Post("/", h.handleCreateOrder)
			r.Get("/myorders", h.handleGetMyOrders)
			r.Get("/{id}", h.handleGetOrderByID)
			r.Put("/{id}/pay", h.handlePayOrder)

			r.With(RequireAdmin).Get("/", h.handleListOrders)
			r.With(RequireAdmin).Put("/{id}/deliver", h.handleDeliverOrder)
		})
	})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var requestPayload CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode create order body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key != "" {
		if _, err := uuid.FromString(key); err != nil {
			respondWithError(w, http.StatusBadRequest, "Idempotency-Key must be a UUID")
			return
		}
	}

	o, created, err := h.service.CreateOrder(r.Context(), caller, requestPayload.toInput(key))
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respondWithJSON(w, status, o)
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	found, err := h.service.GetOrderByID(r.Context(), caller, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *OrderHandler) handleGetMyOrders(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	orders, err := h.service.GetOrdersByUserID(r.Context(), caller.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handlePayOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var requestPayload PayRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Stringer("order_id", orderID).Msg("Failed to decode pay body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	paid, err := h.service.MarkPaid(r.Context(), caller, orderID, order.PaymentDetails{
		ID:           requestPayload.ID,
		Status:       requestPayload.Status,
		UpdateTime:   requestPayload.UpdateTime,
		EmailAddress: requestPayload.EmailAddress,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to mark order paid")
		return
	}

	respondWithJSON(w, http.StatusOK, paid)
}

func (h *OrderHandler) handleDeliverOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	delivered, err := h.service.MarkDelivered(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to mark order delivered")
		return
	}

	respondWithJSON(w, http.StatusOK, delivered)
}

func (h *OrderHandler) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	view, err := h.service.Track(r.Context(), query.Get("id"), query.Get("email"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to track order")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return orderID, true
}
