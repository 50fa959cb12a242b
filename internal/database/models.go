package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Price        pgtype.Numeric `json:"price"`
	ThumbnailURL string         `json:"thumbnail_url"`
	IsActive     bool           `json:"is_active"`
	Categories   []string       `json:"categories"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Letter    string    `json:"letter"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryMember is the preview of a menu item embedded in a category.
// Position orders members within the category.
type CategoryMember struct {
	CategoryID   uuid.UUID      `json:"category_id"`
	ItemID       uuid.UUID      `json:"item_id"`
	Position     int32          `json:"position"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Price        pgtype.Numeric `json:"price"`
	ThumbnailURL string         `json:"thumbnail_url"`
	IsActive     bool           `json:"is_active"`
}

type Order struct {
	ID            uuid.UUID          `json:"id"`
	OrderDate     string             `json:"order_date"`
	CreatedAt     time.Time          `json:"created_at"`
	SenderID      pgtype.Text        `json:"sender_id"`
	Status        string             `json:"status"`
	OrderType     string             `json:"order_type"`
	TableNumber   pgtype.Text        `json:"table_number"`
	Items         []OrderLine        `json:"items"`
	Subtotal      pgtype.Numeric     `json:"subtotal"`
	Contact       *Contact           `json:"contact"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	PaymentStatus pgtype.Text        `json:"payment_status"`
	Discount      pgtype.Numeric     `json:"discount"`
	Taxes         pgtype.Numeric     `json:"taxes"`
	Total         pgtype.Numeric     `json:"total"`
	ClosedAt      pgtype.Timestamptz `json:"closed_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// OrderLine is stored as JSONB inside the order row.
type OrderLine struct {
	Name        string          `json:"name"`
	Quantity    int32           `json:"quantity"`
	Instruction string          `json:"instruction,omitempty"`
	AddOns      []AddOn         `json:"addons,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

type AddOn struct {
	Item  string          `json:"item"`
	Price decimal.Decimal `json:"price"`
}

type Contact struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

type DailyReport struct {
	ReportDate     string         `json:"report_date"`
	NumberOfOrders int32          `json:"number_of_orders"`
	Subtotal       pgtype.Numeric `json:"subtotal"`
	Discount       pgtype.Numeric `json:"discount"`
	Taxes          pgtype.Numeric `json:"taxes"`
	Total          pgtype.Numeric `json:"total"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

type MonthlyReport struct {
	ReportMonth    string         `json:"report_month"`
	ReportDuration string         `json:"report_duration"`
	NumberOfOrders int32          `json:"number_of_orders"`
	Subtotal       pgtype.Numeric `json:"subtotal"`
	Discount       pgtype.Numeric `json:"discount"`
	Taxes          pgtype.Numeric `json:"taxes"`
	Total          pgtype.Numeric `json:"total"`
	GeneratedAt    time.Time      `json:"generated_at"`
}
