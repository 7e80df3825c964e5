package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MultiLang holds the Thai and English variants of a display string.
type MultiLang struct {
	TH string `json:"th" bson:"th"`
	EN string `json:"en" bson:"en"`
}

type Category struct {
	ID          int64      `json:"id"`
	Name        MultiLang  `json:"name"`
	Description *MultiLang `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	SortOrder   int        `json:"sort_order"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Product is owned by the catalog source; the client treats it as immutable.
type Product struct {
	ID          int64           `json:"id" bson:"id"`
	Name        MultiLang       `json:"name" bson:"name"`
	Description *MultiLang      `json:"description,omitempty" bson:"description,omitempty"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	SKU         *string         `json:"sku,omitempty" bson:"sku,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CategoryID  *int64          `json:"category_id,omitempty" bson:"category_id,omitempty"`
	IsActive    bool            `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}

type Table struct {
	ID          int64      `json:"id"`
	TableNumber string     `json:"table_number"`
	Name        *MultiLang `json:"name,omitempty"`
	Capacity    int        `json:"capacity"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
