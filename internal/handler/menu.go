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

// CatalogServicer defines the service methods needed by menu handlers.
// Satisfied by *service.CatalogService; narrow interface for testability.
type CatalogServicer interface {
	CreateItem(ctx context.Context, req service.CreateItemRequest) (*service.CreateItemResult, error)
	UpdateItem(ctx context.Context, id uuid.UUID, patch service.ItemPatch) (database.MenuItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	GetItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListItems(ctx context.Context) ([]database.MenuItem, error)
	CreateCategory(ctx context.Context, req service.CreateCategoryRequest) (*service.CategoryView, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, patch service.CategoryPatch) (database.Category, error)
	AddItemsToCategory(ctx context.Context, categoryID uuid.UUID, itemIDs []uuid.UUID) (*service.CategoryView, error)
	RemoveItemsFromCategory(ctx context.Context, categoryID uuid.UUID, itemIDs []uuid.UUID) (*service.CategoryView, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListActiveCategories(ctx context.Context) ([]service.CategoryView, error)
	ListAllCategories(ctx context.Context) ([]service.CategoryView, error)
}

// MenuHandler handles menu item and category endpoints.
type MenuHandler struct {
	svc CatalogServicer
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(svc CatalogServicer) *MenuHandler {
	return &MenuHandler{svc: svc}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted at /menu. Callers must run Authenticate or
// OptionalAuthenticate in front; rank checks happen per route.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListActive)

	r.With(middleware.RequireRank(enum.RoleManager)).Get("/all", h.ListAll)

	r.Route("/items", func(r chi.Router) {
		r.With(middleware.RequireRank(enum.RoleManager)).Get("/", h.ListItems)
		r.With(middleware.RequireRank(enum.RoleManager)).Post("/", h.CreateItem)
		r.With(middleware.RequireRank(enum.RoleServer)).Get("/{id}", h.GetItem)
		r.With(middleware.RequireRank(enum.RoleManager)).Patch("/{id}", h.UpdateItem)
		r.With(middleware.RequireRank(enum.RoleOwner)).Delete("/{id}", h.DeleteItem)
	})

	r.Route("/categories", func(r chi.Router) {
		r.With(middleware.RequireRank(enum.RoleManager)).Post("/", h.CreateCategory)
		r.With(middleware.RequireRank(enum.RoleManager)).Patch("/{id}", h.UpdateCategory)
		r.With(middleware.RequireRank(enum.RoleManager)).Post("/{id}/items", h.AddItems)
		r.With(middleware.RequireRank(enum.RoleOwner)).Delete("/{id}/items", h.RemoveItems)
		r.With(middleware.RequireRank(enum.RoleOwner)).Delete("/{id}", h.DeleteCategory)
	})
}

// --- Request / Response types ---

type createItemRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Price        decimalString `json:"price"`
	ThumbnailURL string        `json:"thumbnail_url"`
	Active       *bool         `json:"active"`
}

type updateItemRequest struct {
	Name         *string        `json:"name"`
	Description  *string        `json:"description"`
	Price        *decimalString `json:"price"`
	ThumbnailURL *string        `json:"thumbnail_url"`
	Active       *bool          `json:"active"`
}

type createCategoryRequest struct {
	Name    string      `json:"name"`
	Letter  string      `json:"letter"`
	ItemIDs []uuid.UUID `json:"item_ids"`
	Active  *bool       `json:"active"`
}

type updateCategoryRequest struct {
	Name   *string `json:"name"`
	Letter *string `json:"letter"`
	Active *bool   `json:"active"`
}

type itemIDsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids"`
}

type itemResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsActive     bool      `json:"is_active"`
	Categories   []string  `json:"categories"`
	CreatedAt    time.Time `json:"created_at"`
}

type previewResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsActive     bool      `json:"is_active"`
}

type categoryViewResponse struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Letter   string            `json:"letter"`
	IsActive bool              `json:"is_active"`
	Items    []previewResponse `json:"items"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Letter    string    `json:"letter"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toItemResponse(it database.MenuItem) itemResponse {
	cats := it.Categories
	if cats == nil {
		cats = []string{}
	}
	return itemResponse{
		ID:           it.ID,
		Name:         it.Name,
		Description:  it.Description,
		Price:        money(it.Price),
		ThumbnailURL: it.ThumbnailURL,
		IsActive:     it.IsActive,
		Categories:   cats,
		CreatedAt:    it.CreatedAt,
	}
}

func toCategoryViewResponse(v service.CategoryView) categoryViewResponse {
	items := make([]previewResponse, len(v.Items))
	for i, p := range v.Items {
		items[i] = previewResponse{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price.StringFixed(2),
			ThumbnailURL: p.ThumbnailURL,
			IsActive:     p.Active,
		}
	}
	return categoryViewResponse{
		ID:       v.ID,
		Name:     v.Name,
		Letter:   v.Letter,
		IsActive: v.Active,
		Items:    items,
	}
}

func toCategoryViewList(views []service.CategoryView) []categoryViewResponse {
	resp := make([]categoryViewResponse, len(views))
	for i, v := range views {
		resp[i] = toCategoryViewResponse(v)
	}
	return resp
}

// --- Read handlers ---

// ListActive handles GET /menu, the public menu.
func (h *MenuHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListActiveCategories(r.Context())
	if err != nil {
		writeServiceError(w, "list active categories", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryViewList(views))
}

// ListAll handles GET /menu/all including inactive categories and items.
func (h *MenuHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListAllCategories(r.Context())
	if err != nil {
		writeServiceError(w, "list all categories", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryViewList(views))
}

func (h *MenuHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, "list items", err)
		return
	}
	resp := make([]itemResponse, len(items))
	for i, it := range items {
		resp[i] = toItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}
	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// --- Item write handlers ---

// CreateItem handles POST /menu/items. Items are active unless "active": false.
func (h *MenuHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Price.set {
		writeError(w, http.StatusBadRequest, "price is required")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	result, err := h.svc.CreateItem(r.Context(), service.CreateItemRequest{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price.Decimal,
		ThumbnailURL: req.ThumbnailURL,
		Active:       active,
	})
	if err != nil {
		writeServiceError(w, "create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        result.ID,
		"is_active": result.Active,
	})
}

func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := service.ItemPatch{
		Name:         req.Name,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		Active:       req.Active,
	}
	if req.Price != nil && req.Price.set {
		patch.Price = &req.Price.Decimal
	}

	item, err := h.svc.UpdateItem(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *MenuHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}
	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		writeServiceError(w, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Category write handlers ---

func (h *MenuHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	view, err := h.svc.CreateCategory(r.Context(), service.CreateCategoryRequest{
		Name:    req.Name,
		ItemIDs: req.ItemIDs,
		Letter:  req.Letter,
		Active:  active,
	})
	if err != nil {
		writeServiceError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryViewResponse(*view))
}

func (h *MenuHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cat, err := h.svc.UpdateCategory(r.Context(), id, service.CategoryPatch{
		Name:   req.Name,
		Letter: req.Letter,
		Active: req.Active,
	})
	if err != nil {
		writeServiceError(w, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{
		ID:        cat.ID,
		Name:      cat.Name,
		Letter:    cat.Letter,
		IsActive:  cat.IsActive,
		CreatedAt: cat.CreatedAt,
	})
}

// AddItems handles POST /menu/categories/{id}/items.
func (h *MenuHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, "add items to category", h.svc.AddItemsToCategory)
}

// RemoveItems handles DELETE /menu/categories/{id}/items with an item_ids body.
func (h *MenuHandler) RemoveItems(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, "remove items from category", h.svc.RemoveItemsFromCategory)
}

func (h *MenuHandler) changeMembers(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	apply func(context.Context, uuid.UUID, []uuid.UUID) (*service.CategoryView, error),
) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}
	var req itemIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := apply(r.Context(), id, req.ItemIDs)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryViewResponse(*view))
}

func (h *MenuHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
