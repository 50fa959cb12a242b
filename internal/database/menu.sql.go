package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, description, price, thumbnail_url, is_active, categories, created_at`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.ThumbnailURL,
		&i.IsActive,
		&i.Categories,
		&i.CreatedAt,
	)
	return i, err
}

const getMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const listMenuItemsByIDs = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ANY($1::uuid[])`

func (q *Queries) ListMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItemsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listMenuItems = `SELECT ` + menuItemColumns + ` FROM menu_items ORDER BY lower(name)`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const menuItemNameTaken = `SELECT EXISTS (SELECT 1 FROM menu_items WHERE name = $1 AND id <> $2)`

type MenuItemNameTakenParams struct {
	Name      string
	ExcludeID uuid.UUID
}

// MenuItemNameTaken reports whether another item (active or not) already uses the name.
func (q *Queries) MenuItemNameTaken(ctx context.Context, arg MenuItemNameTakenParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, menuItemNameTaken, arg.Name, arg.ExcludeID).Scan(&exists)
	return exists, err
}

const createMenuItem = `INSERT INTO menu_items (name, description, price, thumbnail_url, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Name         string
	Description  string
	Price        pgtype.Numeric
	ThumbnailURL string
	IsActive     bool
	CreatedAt    pgtype.Timestamptz
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ThumbnailURL,
		arg.IsActive,
		arg.CreatedAt,
	))
}

const updateMenuItem = `UPDATE menu_items
SET name = $2, description = $3, price = $4, thumbnail_url = $5, is_active = $6
WHERE id = $1
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Price        pgtype.Numeric
	ThumbnailURL string
	IsActive     bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ThumbnailURL,
		arg.IsActive,
	))
}

const setMenuItemCategories = `UPDATE menu_items SET categories = $2 WHERE id = $1`

type SetMenuItemCategoriesParams struct {
	ID         uuid.UUID
	Categories []string
}

func (q *Queries) SetMenuItemCategories(ctx context.Context, arg SetMenuItemCategoriesParams) error {
	categories := arg.Categories
	if categories == nil {
		categories = []string{}
	}
	_, err := q.db.Exec(ctx, setMenuItemCategories, arg.ID, categories)
	return err
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = $1`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteMenuItem, id)
	return err
}

const categoryColumns = `id, name, letter, is_active, created_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Letter, &c.IsActive, &c.CreatedAt)
	return c, err
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, getCategory, id))
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories ORDER BY letter, name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const categoryNameTaken = `SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1 AND id <> $2)`

type CategoryNameTakenParams struct {
	Name      string
	ExcludeID uuid.UUID
}

func (q *Queries) CategoryNameTaken(ctx context.Context, arg CategoryNameTakenParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, categoryNameTaken, arg.Name, arg.ExcludeID).Scan(&exists)
	return exists, err
}

const createCategory = `INSERT INTO categories (name, letter, is_active)
VALUES ($1, $2, $3)
RETURNING ` + categoryColumns

type CreateCategoryParams struct {
	Name     string
	Letter   string
	IsActive bool
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, createCategory, arg.Name, arg.Letter, arg.IsActive))
}

const updateCategory = `UPDATE categories
SET name = $2, letter = $3, is_active = $4
WHERE id = $1
RETURNING ` + categoryColumns

type UpdateCategoryParams struct {
	ID       uuid.UUID
	Name     string
	Letter   string
	IsActive bool
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.Letter, arg.IsActive))
}

const deleteCategory = `DELETE FROM categories WHERE id = $1`

func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteCategory, id)
	return err
}

const memberColumns = `category_id, item_id, position, name, description, price, thumbnail_url, is_active`

func scanMember(row interface{ Scan(...any) error }) (CategoryMember, error) {
	var m CategoryMember
	err := row.Scan(
		&m.CategoryID,
		&m.ItemID,
		&m.Position,
		&m.Name,
		&m.Description,
		&m.Price,
		&m.ThumbnailURL,
		&m.IsActive,
	)
	return m, err
}

func (q *Queries) listMembers(ctx context.Context, query string, args ...any) ([]CategoryMember, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []CategoryMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

const listCategoryMembers = `SELECT ` + memberColumns + ` FROM category_items WHERE category_id = $1 ORDER BY position`

func (q *Queries) ListCategoryMembers(ctx context.Context, categoryID uuid.UUID) ([]CategoryMember, error) {
	return q.listMembers(ctx, listCategoryMembers, categoryID)
}

const listAllCategoryMembers = `SELECT ` + memberColumns + ` FROM category_items ORDER BY category_id, position`

func (q *Queries) ListAllCategoryMembers(ctx context.Context) ([]CategoryMember, error) {
	return q.listMembers(ctx, listAllCategoryMembers)
}

const listMembersByItem = `SELECT ` + memberColumns + ` FROM category_items WHERE item_id = $1`

// ListMembersByItem returns the preview rows of an item, one per owning category.
func (q *Queries) ListMembersByItem(ctx context.Context, itemID uuid.UUID) ([]CategoryMember, error) {
	return q.listMembers(ctx, listMembersByItem, itemID)
}

const insertCategoryMember = `INSERT INTO category_items (` + memberColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (q *Queries) InsertCategoryMember(ctx context.Context, arg CategoryMember) error {
	_, err := q.db.Exec(ctx, insertCategoryMember,
		arg.CategoryID,
		arg.ItemID,
		arg.Position,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ThumbnailURL,
		arg.IsActive,
	)
	return err
}

const updateMemberPreview = `UPDATE category_items
SET name = $3, description = $4, price = $5, thumbnail_url = $6, is_active = $7
WHERE category_id = $1 AND item_id = $2`

type UpdateMemberPreviewParams struct {
	CategoryID   uuid.UUID
	ItemID       uuid.UUID
	Name         string
	Description  string
	Price        pgtype.Numeric
	ThumbnailURL string
	IsActive     bool
}

func (q *Queries) UpdateMemberPreview(ctx context.Context, arg UpdateMemberPreviewParams) error {
	_, err := q.db.Exec(ctx, updateMemberPreview,
		arg.CategoryID,
		arg.ItemID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ThumbnailURL,
		arg.IsActive,
	)
	return err
}

const deleteCategoryMember = `DELETE FROM category_items WHERE category_id = $1 AND item_id = $2`

type DeleteCategoryMemberParams struct {
	CategoryID uuid.UUID
	ItemID     uuid.UUID
}

func (q *Queries) DeleteCategoryMember(ctx context.Context, arg DeleteCategoryMemberParams) error {
	_, err := q.db.Exec(ctx, deleteCategoryMember, arg.CategoryID, arg.ItemID)
	return err
}

const setMemberPosition = `UPDATE category_items SET position = $3 WHERE category_id = $1 AND item_id = $2`

type SetMemberPositionParams struct {
	CategoryID uuid.UUID
	ItemID     uuid.UUID
	Position   int32
}

func (q *Queries) SetMemberPosition(ctx context.Context, arg SetMemberPositionParams) error {
	_, err := q.db.Exec(ctx, setMemberPosition, arg.CategoryID, arg.ItemID, arg.Position)
	return err
}
