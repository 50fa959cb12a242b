package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
)

// CatalogStore defines the DB methods needed by the catalog service.
// Satisfied by *database.Queries; narrow interface for testability.
type CatalogStore interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	MenuItemNameTaken(ctx context.Context, arg database.MenuItemNameTakenParams) (bool, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemCategories(ctx context.Context, arg database.SetMenuItemCategoriesParams) error
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error

	GetCategory(ctx context.Context, id uuid.UUID) (database.Category, error)
	ListCategories(ctx context.Context) ([]database.Category, error)
	CategoryNameTaken(ctx context.Context, arg database.CategoryNameTakenParams) (bool, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListCategoryMembers(ctx context.Context, categoryID uuid.UUID) ([]database.CategoryMember, error)
	ListAllCategoryMembers(ctx context.Context) ([]database.CategoryMember, error)
	ListMembersByItem(ctx context.Context, itemID uuid.UUID) ([]database.CategoryMember, error)
	InsertCategoryMember(ctx context.Context, arg database.CategoryMember) error
	UpdateMemberPreview(ctx context.Context, arg database.UpdateMemberPreviewParams) error
	DeleteCategoryMember(ctx context.Context, arg database.DeleteCategoryMemberParams) error
	SetMemberPosition(ctx context.Context, arg database.SetMemberPositionParams) error
}

// NewCatalogStore creates a CatalogStore from a DBTX (pool or tx).
type NewCatalogStore func(db database.DBTX) CatalogStore

// CreateItemRequest is the input for creating a menu item.
type CreateItemRequest struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	ThumbnailURL string
	Active       bool
}

// CreateItemResult carries the generated id and whether the item is visible on the menu.
type CreateItemResult struct {
	ID     uuid.UUID
	Active bool
}

// ItemPatch holds the fields to change on an item. Nil fields are left alone.
type ItemPatch struct {
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	ThumbnailURL *string
	Active       *bool
}

// touchesPreview reports whether the patch changes any field mirrored into category previews.
// Every patchable item field is currently previewed.
func (p ItemPatch) touchesPreview() bool {
	return p.Name != nil || p.Description != nil || p.Price != nil || p.ThumbnailURL != nil || p.Active != nil
}

type CreateCategoryRequest struct {
	Name    string
	ItemIDs []uuid.UUID
	Letter  string
	Active  bool
}

// CategoryPatch holds category settings to change. Membership is managed separately.
type CategoryPatch struct {
	Name   *string
	Letter *string
	Active *bool
}

// ItemPreview is the display copy of an item embedded in a category.
type ItemPreview struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Price        decimal.Decimal
	ThumbnailURL string
	Active       bool
}

// CategoryView is a category with its members in display order.
type CategoryView struct {
	ID     uuid.UUID
	Name   string
	Letter string
	Active bool
	Items  []ItemPreview
}

// CatalogService keeps canonical menu items and the previews embedded in categories consistent.
// Every mutation runs in one serializable transaction; reads are plain snapshots.
type CatalogService struct {
	pool     TxBeginner
	store    CatalogStore
	newStore NewCatalogStore
	now      func() time.Time
}

// NewCatalogService creates a new CatalogService.
// store serves the read paths; newStore binds the queries to a transaction.
func NewCatalogService(pool TxBeginner, store CatalogStore, newStore NewCatalogStore) *CatalogService {
	return &CatalogService{pool: pool, store: store, newStore: newStore, now: time.Now}
}

// --- Items ---

// CreateItem creates a menu item. Names are unique across active and inactive items.
func (s *CatalogService) CreateItem(ctx context.Context, req CreateItemRequest) (*CreateItemResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	var created database.MenuItem
	err := runInTx(ctx, s.pool, "create item", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		taken, err := store.MenuItemNameTaken(ctx, database.MenuItemNameTakenParams{Name: name, ExcludeID: uuid.Nil})
		if err != nil {
			return fmt.Errorf("check item name: %w", err)
		}
		if taken {
			return ErrDuplicateName
		}

		created, err = store.CreateMenuItem(ctx, database.CreateMenuItemParams{
			Name:         name,
			Description:  req.Description,
			Price:        database.DecimalToNumeric(req.Price),
			ThumbnailURL: req.ThumbnailURL,
			IsActive:     req.Active,
			CreatedAt:    pgtype.Timestamptz{Time: s.now(), Valid: true},
		})
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &CreateItemResult{ID: created.ID, Active: created.IsActive}, nil
}

// UpdateItem applies patch to the item and rewrites its preview in every owning category.
func (s *CatalogService) UpdateItem(ctx context.Context, id uuid.UUID, patch ItemPatch) (database.MenuItem, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return database.MenuItem{}, ErrNameRequired
		}
		patch.Name = &trimmed
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return database.MenuItem{}, ErrInvalidPrice
	}

	var updated database.MenuItem
	err := runInTx(ctx, s.pool, "update item", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		item, err := store.GetMenuItem(ctx, id)
		if err != nil {
			return notFoundOr("get item", err)
		}

		params := database.UpdateMenuItemParams{
			ID:           item.ID,
			Name:         item.Name,
			Description:  item.Description,
			Price:        item.Price,
			ThumbnailURL: item.ThumbnailURL,
			IsActive:     item.IsActive,
		}
		if patch.Name != nil && *patch.Name != item.Name {
			taken, err := store.MenuItemNameTaken(ctx, database.MenuItemNameTakenParams{Name: *patch.Name, ExcludeID: item.ID})
			if err != nil {
				return fmt.Errorf("check item name: %w", err)
			}
			if taken {
				return ErrDuplicateName
			}
			params.Name = *patch.Name
		}
		if patch.Description != nil {
			params.Description = *patch.Description
		}
		if patch.Price != nil {
			params.Price = database.DecimalToNumeric(*patch.Price)
		}
		if patch.ThumbnailURL != nil {
			params.ThumbnailURL = *patch.ThumbnailURL
		}
		if patch.Active != nil {
			params.IsActive = *patch.Active
		}

		updated, err = store.UpdateMenuItem(ctx, params)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		if !patch.touchesPreview() {
			return nil
		}
		members, err := store.ListMembersByItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("list owning categories: %w", err)
		}
		for _, m := range members {
			err := store.UpdateMemberPreview(ctx, database.UpdateMemberPreviewParams{
				CategoryID:   m.CategoryID,
				ItemID:       updated.ID,
				Name:         updated.Name,
				Description:  updated.Description,
				Price:        updated.Price,
				ThumbnailURL: updated.ThumbnailURL,
				IsActive:     updated.IsActive,
			})
			if err != nil {
				return fmt.Errorf("update preview in category %s: %w", m.CategoryID, err)
			}
		}
		return nil
	})
	if err != nil {
		return database.MenuItem{}, err
	}
	return updated, nil
}

// DeleteItem removes the item and its preview from every owning category.
func (s *CatalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return runInTx(ctx, s.pool, "delete item", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		if _, err := store.GetMenuItem(ctx, id); err != nil {
			return notFoundOr("get item", err)
		}

		members, err := store.ListMembersByItem(ctx, id)
		if err != nil {
			return fmt.Errorf("list owning categories: %w", err)
		}
		for _, m := range members {
			err := store.DeleteCategoryMember(ctx, database.DeleteCategoryMemberParams{CategoryID: m.CategoryID, ItemID: id})
			if err != nil {
				return fmt.Errorf("remove preview from category %s: %w", m.CategoryID, err)
			}
			if err := compactPositions(ctx, store, m.CategoryID); err != nil {
				return err
			}
		}

		if err := store.DeleteMenuItem(ctx, id); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	item, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrNotFound
		}
		return database.MenuItem{}, unavailable("get item", err)
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context) ([]database.MenuItem, error) {
	items, err := s.store.ListMenuItems(ctx)
	if err != nil {
		return nil, unavailable("list items", err)
	}
	return items, nil
}

// --- Categories ---

// CreateCategory creates a category whose members are itemIDs, in request order.
// Repeated ids collapse to a single member.
func (s *CatalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	ids := dedupeIDs(req.ItemIDs)

	var view *CategoryView
	err := runInTx(ctx, s.pool, "create category", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		taken, err := store.CategoryNameTaken(ctx, database.CategoryNameTakenParams{Name: name, ExcludeID: uuid.Nil})
		if err != nil {
			return fmt.Errorf("check category name: %w", err)
		}
		if taken {
			return ErrDuplicateName
		}

		items, err := loadItems(ctx, store, ids)
		if err != nil {
			return err
		}

		cat, err := store.CreateCategory(ctx, database.CreateCategoryParams{
			Name:     name,
			Letter:   req.Letter,
			IsActive: req.Active,
		})
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}

		members, err := attachItems(ctx, store, cat, items, 0)
		if err != nil {
			return err
		}
		view = newCategoryView(cat, members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateCategory changes category settings. A rename is carried into the
// membership set of every member item; previews are untouched.
func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (database.Category, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return database.Category{}, ErrNameRequired
		}
		patch.Name = &trimmed
	}

	var updated database.Category
	err := runInTx(ctx, s.pool, "update category", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		cat, err := store.GetCategory(ctx, id)
		if err != nil {
			return notFoundOr("get category", err)
		}

		params := database.UpdateCategoryParams{
			ID:       cat.ID,
			Name:     cat.Name,
			Letter:   cat.Letter,
			IsActive: cat.IsActive,
		}
		renamed := patch.Name != nil && *patch.Name != cat.Name
		if renamed {
			taken, err := store.CategoryNameTaken(ctx, database.CategoryNameTakenParams{Name: *patch.Name, ExcludeID: cat.ID})
			if err != nil {
				return fmt.Errorf("check category name: %w", err)
			}
			if taken {
				return ErrDuplicateName
			}
			params.Name = *patch.Name
		}
		if patch.Letter != nil {
			params.Letter = *patch.Letter
		}
		if patch.Active != nil {
			params.IsActive = *patch.Active
		}

		updated, err = store.UpdateCategory(ctx, params)
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}

		if !renamed {
			return nil
		}
		members, err := store.ListCategoryMembers(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		for _, m := range members {
			item, err := store.GetMenuItem(ctx, m.ItemID)
			if err != nil {
				return fmt.Errorf("get member %s: %w", m.ItemID, err)
			}
			names := replaceName(item.Categories, cat.Name, updated.Name)
			if err := setItemCategories(ctx, store, item.ID, names); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return database.Category{}, err
	}
	return updated, nil
}

// AddItemsToCategory appends the ids that are not members yet.
// Fails with ErrEmptyAfterFilter when every id is already a member.
func (s *CatalogService) AddItemsToCategory(ctx context.Context, categoryID uuid.UUID, itemIDs []uuid.UUID) (*CategoryView, error) {
	if len(itemIDs) == 0 {
		return nil, ErrEmptyItems
	}

	var view *CategoryView
	err := runInTx(ctx, s.pool, "add items to category", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		cat, err := store.GetCategory(ctx, categoryID)
		if err != nil {
			return notFoundOr("get category", err)
		}
		members, err := store.ListCategoryMembers(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		present := make(map[uuid.UUID]bool, len(members))
		for _, m := range members {
			present[m.ItemID] = true
		}
		var fresh []uuid.UUID
		for _, id := range dedupeIDs(itemIDs) {
			if !present[id] {
				fresh = append(fresh, id)
			}
		}
		if len(fresh) == 0 {
			return ErrEmptyAfterFilter
		}

		items, err := loadItems(ctx, store, fresh)
		if err != nil {
			return err
		}
		added, err := attachItems(ctx, store, cat, items, len(members))
		if err != nil {
			return err
		}
		view = newCategoryView(cat, append(members, added...))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RemoveItemsFromCategory drops the given members. Ids that are not members are ignored.
func (s *CatalogService) RemoveItemsFromCategory(ctx context.Context, categoryID uuid.UUID, itemIDs []uuid.UUID) (*CategoryView, error) {
	var view *CategoryView
	err := runInTx(ctx, s.pool, "remove items from category", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		cat, err := store.GetCategory(ctx, categoryID)
		if err != nil {
			return notFoundOr("get category", err)
		}
		members, err := store.ListCategoryMembers(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		remove := make(map[uuid.UUID]bool, len(itemIDs))
		for _, id := range itemIDs {
			remove[id] = true
		}

		var kept []database.CategoryMember
		for _, m := range members {
			if !remove[m.ItemID] {
				kept = append(kept, m)
				continue
			}
			err := store.DeleteCategoryMember(ctx, database.DeleteCategoryMemberParams{CategoryID: cat.ID, ItemID: m.ItemID})
			if err != nil {
				return fmt.Errorf("remove member %s: %w", m.ItemID, err)
			}
			item, err := store.GetMenuItem(ctx, m.ItemID)
			if err != nil {
				return fmt.Errorf("get member %s: %w", m.ItemID, err)
			}
			if err := setItemCategories(ctx, store, item.ID, removeName(item.Categories, cat.Name)); err != nil {
				return err
			}
		}

		if len(kept) != len(members) {
			for i := range kept {
				if kept[i].Position == int32(i) {
					continue
				}
				err := store.SetMemberPosition(ctx, database.SetMemberPositionParams{
					CategoryID: cat.ID,
					ItemID:     kept[i].ItemID,
					Position:   int32(i),
				})
				if err != nil {
					return fmt.Errorf("reorder members: %w", err)
				}
				kept[i].Position = int32(i)
			}
		}
		view = newCategoryView(cat, kept)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// DeleteCategory removes the category and its name from every member item.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return runInTx(ctx, s.pool, "delete category", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		cat, err := store.GetCategory(ctx, id)
		if err != nil {
			return notFoundOr("get category", err)
		}
		members, err := store.ListCategoryMembers(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		for _, m := range members {
			item, err := store.GetMenuItem(ctx, m.ItemID)
			if err != nil {
				return fmt.Errorf("get member %s: %w", m.ItemID, err)
			}
			if err := setItemCategories(ctx, store, item.ID, removeName(item.Categories, cat.Name)); err != nil {
				return err
			}
		}

		// Preview rows go with the category (ON DELETE CASCADE).
		if err := store.DeleteCategory(ctx, cat.ID); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

// ListActiveCategories returns the public menu: active categories with their
// active items only. Categories left without any active item are omitted.
func (s *CatalogService) ListActiveCategories(ctx context.Context) ([]CategoryView, error) {
	views, err := s.listCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryView, 0, len(views))
	for _, v := range views {
		if !v.Active {
			continue
		}
		var active []ItemPreview
		for _, it := range v.Items {
			if it.Active {
				active = append(active, it)
			}
		}
		if len(active) == 0 {
			continue
		}
		v.Items = active
		out = append(out, v)
	}
	return out, nil
}

// ListAllCategories returns every category with every preview.
func (s *CatalogService) ListAllCategories(ctx context.Context) ([]CategoryView, error) {
	return s.listCategories(ctx)
}

func (s *CatalogService) listCategories(ctx context.Context) ([]CategoryView, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, unavailable("list categories", err)
	}
	members, err := s.store.ListAllCategoryMembers(ctx)
	if err != nil {
		return nil, unavailable("list category members", err)
	}

	byCategory := make(map[uuid.UUID][]database.CategoryMember, len(cats))
	for _, m := range members {
		byCategory[m.CategoryID] = append(byCategory[m.CategoryID], m)
	}

	views := make([]CategoryView, 0, len(cats))
	for _, c := range cats {
		v := newCategoryView(c, byCategory[c.ID])
		sortPreviews(v.Items)
		views = append(views, *v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Letter != views[j].Letter {
			return views[i].Letter < views[j].Letter
		}
		return views[i].Name < views[j].Name
	})
	return views, nil
}

// --- Helpers ---

func notFoundOr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// loadItems reads every id in order, failing with ErrInvalidItemList when any is unknown.
func loadItems(ctx context.Context, store CatalogStore, ids []uuid.UUID) ([]database.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := store.ListMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	byID := make(map[uuid.UUID]database.MenuItem, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	items := make([]database.MenuItem, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidItemList, id)
		}
		items = append(items, it)
	}
	return items, nil
}

// attachItems inserts a preview row for each item starting at position offset
// and records the category name on the item.
func attachItems(ctx context.Context, store CatalogStore, cat database.Category, items []database.MenuItem, offset int) ([]database.CategoryMember, error) {
	members := make([]database.CategoryMember, 0, len(items))
	for i, it := range items {
		m := previewOf(cat.ID, it, int32(offset+i))
		if err := store.InsertCategoryMember(ctx, m); err != nil {
			return nil, fmt.Errorf("insert member %s: %w", it.ID, err)
		}
		if err := setItemCategories(ctx, store, it.ID, appendName(it.Categories, cat.Name)); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func compactPositions(ctx context.Context, store CatalogStore, categoryID uuid.UUID) error {
	members, err := store.ListCategoryMembers(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	for i, m := range members {
		if m.Position == int32(i) {
			continue
		}
		err := store.SetMemberPosition(ctx, database.SetMemberPositionParams{
			CategoryID: categoryID,
			ItemID:     m.ItemID,
			Position:   int32(i),
		})
		if err != nil {
			return fmt.Errorf("reorder members: %w", err)
		}
	}
	return nil
}

func setItemCategories(ctx context.Context, store CatalogStore, itemID uuid.UUID, names []string) error {
	err := store.SetMenuItemCategories(ctx, database.SetMenuItemCategoriesParams{ID: itemID, Categories: names})
	if err != nil {
		return fmt.Errorf("set categories of item %s: %w", itemID, err)
	}
	return nil
}

func previewOf(categoryID uuid.UUID, it database.MenuItem, position int32) database.CategoryMember {
	return database.CategoryMember{
		CategoryID:   categoryID,
		ItemID:       it.ID,
		Position:     position,
		Name:         it.Name,
		Description:  it.Description,
		Price:        it.Price,
		ThumbnailURL: it.ThumbnailURL,
		IsActive:     it.IsActive,
	}
}

func newCategoryView(c database.Category, members []database.CategoryMember) *CategoryView {
	v := &CategoryView{
		ID:     c.ID,
		Name:   c.Name,
		Letter: c.Letter,
		Active: c.IsActive,
		Items:  make([]ItemPreview, 0, len(members)),
	}
	for _, m := range members {
		v.Items = append(v.Items, ItemPreview{
			ID:           m.ItemID,
			Name:         m.Name,
			Description:  m.Description,
			Price:        database.NumericToDecimal(m.Price),
			ThumbnailURL: m.ThumbnailURL,
			Active:       m.IsActive,
		})
	}
	return v
}

// sortPreviews orders items by name, ignoring case.
func sortPreviews(items []ItemPreview) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		return items[i].Name < items[j].Name
	})
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func appendName(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	out := make([]string, 0, len(names)+1)
	out = append(out, names...)
	return append(out, name)
}

func removeName(names []string, name string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func replaceName(names []string, old, name string) []string {
	return appendName(removeName(names, old), name)
}
