package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreatePickupOrder(ctx context.Context, req service.CreatePickupOrderRequest) (database.Order, error)
	CreateDineInOrder(ctx context.Context, req service.CreateDineInOrderRequest) (database.Order, error)
	AppendItems(ctx context.Context, orderID uuid.UUID, items []database.OrderLine) (database.Order, error)
	CloseOrder(ctx context.Context, orderID uuid.UUID, req service.CloseOrderRequest) (database.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, patch service.OrderPatch) (database.Order, error)
	DeleteOrders(ctx context.Context, ids []uuid.UUID) (*service.DeleteOrdersResult, error)
	ListOpenOrders(ctx context.Context) ([]service.OrderSummary, error)
	ListOrdersInRange(ctx context.Context, start, end time.Time) ([]service.OrderSummary, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetDineInOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
	loc *time.Location
}

// NewOrderHandler creates a new OrderHandler. loc is used to read search
// ranges given without a timezone.
func NewOrderHandler(svc OrderServicer, loc *time.Location) *OrderHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderHandler{svc: svc, loc: loc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders behind OptionalAuthenticate.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	// Guests at a table need no account.
	r.Post("/dine-in", h.CreateDineIn)
	r.Get("/dine-in/{id}", h.GetDineIn)
	r.Post("/dine-in/{id}/items", h.AppendItems)

	r.With(middleware.RequireRank(enum.RoleGuest)).Post("/pickup", h.CreatePickup)
	r.With(middleware.RequireRank(enum.RoleGuest)).Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRank(enum.RoleServer))
		r.Get("/", h.ListOpen)
		r.Get("/search", h.Search)
		r.Patch("/{id}", h.Update)
		r.Post("/{id}/close", h.Close)
	})

	r.With(middleware.RequireRank(enum.RoleManager)).Delete("/", h.Delete)
}

// --- Request / Response types ---

type createPickupRequest struct {
	Items         []database.OrderLine `json:"items"`
	Subtotal      decimalString        `json:"subtotal"`
	Contact       *database.Contact    `json:"contact"`
	PaymentMethod string               `json:"payment_method"`
}

type createDineInRequest struct {
	Items    []database.OrderLine `json:"items"`
	Subtotal decimalString        `json:"subtotal"`
	Table    string               `json:"table"`
}

type appendItemsRequest struct {
	Items []database.OrderLine `json:"items"`
}

type closeOrderRequest struct {
	PaymentMethod string        `json:"payment_method"`
	Discount      decimalString `json:"discount"`
	Taxes         decimalString `json:"taxes"`
	Total         decimalString `json:"total"`
}

type updateOrderRequest struct {
	Status        *string               `json:"status"`
	PaymentStatus *string               `json:"payment_status"`
	Table         *string               `json:"table"`
	Items         *[]database.OrderLine `json:"items"`
	Subtotal      *decimalString        `json:"subtotal"`
	Contact       *database.Contact     `json:"contact"`
	PaymentMethod *string               `json:"payment_method"`
}

type deleteOrdersRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type orderResponse struct {
	ID            uuid.UUID            `json:"id"`
	OrderDate     string               `json:"order_date"`
	CreatedAt     time.Time            `json:"created_at"`
	SenderID      *string              `json:"sender_id"`
	Status        string               `json:"status"`
	OrderType     string               `json:"order_type"`
	Table         *string              `json:"table"`
	Items         []database.OrderLine `json:"items"`
	Subtotal      string               `json:"subtotal"`
	Contact       *database.Contact    `json:"contact,omitempty"`
	PaymentMethod *string              `json:"payment_method"`
	PaymentStatus *string              `json:"payment_status"`
	Discount      *string              `json:"discount"`
	Taxes         *string              `json:"taxes"`
	Total         *string              `json:"total"`
	ClosedAt      *time.Time           `json:"closed_at"`
}

type orderSummaryResponse struct {
	ID        uuid.UUID            `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Items     []database.OrderLine `json:"items"`
	SenderID  string               `json:"sender_id,omitempty"`
	Status    string               `json:"status"`
	Table     string               `json:"table,omitempty"`
}

type deleteOrdersResponse struct {
	Deleted []uuid.UUID `json:"deleted"`
	Missing []uuid.UUID `json:"missing"`
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderDate:     o.OrderDate,
		CreatedAt:     o.CreatedAt,
		SenderID:      textOrNil(o.SenderID),
		Status:        o.Status,
		OrderType:     o.OrderType,
		Table:         textOrNil(o.TableNumber),
		Items:         o.Items,
		Subtotal:      money(o.Subtotal),
		Contact:       o.Contact,
		PaymentMethod: textOrNil(o.PaymentMethod),
		PaymentStatus: textOrNil(o.PaymentStatus),
		Discount:      moneyOrNil(o.Discount),
		Taxes:         moneyOrNil(o.Taxes),
		Total:         moneyOrNil(o.Total),
	}
	if o.ClosedAt.Valid {
		resp.ClosedAt = &o.ClosedAt.Time
	}
	if resp.Items == nil {
		resp.Items = []database.OrderLine{}
	}
	return resp
}

func toSummaryList(orders []service.OrderSummary) []orderSummaryResponse {
	resp := make([]orderSummaryResponse, len(orders))
	for i, o := range orders {
		resp[i] = orderSummaryResponse{
			ID:        o.ID,
			CreatedAt: o.CreatedAt,
			Items:     o.Items,
			SenderID:  o.SenderID,
			Status:    o.Status,
			Table:     o.Table,
		}
	}
	return resp
}

func senderOf(r *http.Request) string {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}

// --- Guest handlers ---

// CreateDineIn handles POST /orders/dine-in.
func (h *OrderHandler) CreateDineIn(w http.ResponseWriter, r *http.Request) {
	var req createDineInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.CreateDineInOrder(r.Context(), service.CreateDineInOrderRequest{
		Items:    req.Items,
		Subtotal: req.Subtotal.Decimal,
		Table:    req.Table,
		SenderID: senderOf(r),
	})
	if err != nil {
		writeServiceError(w, "create dine-in order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// GetDineIn handles GET /orders/dine-in/{id}.
func (h *OrderHandler) GetDineIn(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	order, err := h.svc.GetDineInOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get dine-in order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// AppendItems handles POST /orders/dine-in/{id}/items.
func (h *OrderHandler) AppendItems(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req appendItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.AppendItems(r.Context(), id, req.Items)
	if err != nil {
		writeServiceError(w, "append items", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// --- Customer handlers ---

// CreatePickup handles POST /orders/pickup for a signed-in customer.
func (h *OrderHandler) CreatePickup(w http.ResponseWriter, r *http.Request) {
	var req createPickupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.CreatePickupOrder(r.Context(), service.CreatePickupOrderRequest{
		Items:         req.Items,
		Subtotal:      req.Subtotal.Decimal,
		Contact:       req.Contact,
		PaymentMethod: req.PaymentMethod,
		SenderID:      senderOf(r),
	})
	if err != nil {
		writeServiceError(w, "create pick-up order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /orders/{id}. Staff see every order; anyone else only
// orders they sent.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims.Role > enum.RoleServer && (!order.SenderID.Valid || order.SenderID.String != claims.UserID) {
		// Same answer as a missing order so ids cannot be probed.
		writeError(w, http.StatusNotFound, service.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// --- Staff handlers ---

// ListOpen handles GET /orders.
func (h *OrderHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOpenOrders(r.Context())
	if err != nil {
		writeServiceError(w, "list open orders", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryList(orders))
}

// Search handles GET /orders/search?start=&end=.
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	orders, err := h.svc.ListOrdersInRange(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, "list orders in range", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryList(orders))
}

// Update handles PATCH /orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := service.OrderPatch{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		Table:         req.Table,
		Items:         req.Items,
		Contact:       req.Contact,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Subtotal != nil && req.Subtotal.set {
		patch.Subtotal = &req.Subtotal.Decimal
	}

	order, err := h.svc.UpdateOrder(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, "update order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Close handles POST /orders/{id}/close.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req closeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Total.set {
		writeError(w, http.StatusBadRequest, "total is required")
		return
	}

	order, err := h.svc.CloseOrder(r.Context(), id, service.CloseOrderRequest{
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount.Decimal,
		Taxes:         req.Taxes.Decimal,
		Total:         req.Total.Decimal,
	})
	if err != nil {
		writeServiceError(w, "close order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Delete handles DELETE /orders with {"ids": [...]}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteOrdersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.DeleteOrders(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, "delete orders", err)
		return
	}
	resp := deleteOrdersResponse{Deleted: result.Deleted, Missing: result.Missing}
	if resp.Deleted == nil {
		resp.Deleted = []uuid.UUID{}
	}
	if resp.Missing == nil {
		resp.Missing = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, resp)
}
