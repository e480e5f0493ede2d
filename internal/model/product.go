package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

type UnitOfMeasure string

const (
	UnitMilliliter UnitOfMeasure = "ml"
	UnitGram       UnitOfMeasure = "g"
	UnitPiece      UnitOfMeasure = "piece"
)

const DefaultLowStockThreshold = 10

func (u UnitOfMeasure) Valid() bool {
	switch u {
	case UnitMilliliter, UnitGram, UnitPiece:
		return true
	}
	return false
}

// ProductGroup is a SKU template. Its identity tuple is unique across the catalog.
type ProductGroup struct {
	BaseModel
	BrandName         string          `gorm:"type:varchar(120);not null;uniqueIndex:idx_product_group_identity,priority:1" json:"brand_name"`
	SubCategory       string          `gorm:"type:varchar(120);not null;uniqueIndex:idx_product_group_identity,priority:2" json:"sub_category"`
	ProductName       string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_product_group_identity,priority:3" json:"product_name"`
	QuantityPerItem   float64         `gorm:"not null;uniqueIndex:idx_product_group_identity,priority:4" json:"quantity_per_item"`
	Unit              UnitOfMeasure   `gorm:"type:varchar(10);not null;uniqueIndex:idx_product_group_identity,priority:5" json:"unit"`
	SellingPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null;uniqueIndex:idx_product_group_identity,priority:6" json:"selling_price"`
	LowStockThreshold int             `gorm:"not null" json:"low_stock_threshold"`
}

// ProductIdentity is the uniqueness tuple of a ProductGroup.
type ProductIdentity struct {
	BrandName       string          `json:"brand_name" validate:"required"`
	SubCategory     string          `json:"sub_category" validate:"required"`
	ProductName     string          `json:"product_name" validate:"required"`
	QuantityPerItem float64         `json:"quantity_per_item" validate:"gt=0"`
	Unit            UnitOfMeasure   `json:"unit" validate:"required,oneof=ml g piece"`
	SellingPrice    decimal.Decimal `json:"selling_price" validate:"dec_gte0"`
}

// Normalize trims the text parts and rounds the price to cents.
func (id ProductIdentity) Normalize() ProductIdentity {
	id.BrandName = strings.TrimSpace(id.BrandName)
	id.SubCategory = strings.TrimSpace(id.SubCategory)
	id.ProductName = strings.TrimSpace(id.ProductName)
	id.Unit = UnitOfMeasure(strings.ToLower(strings.TrimSpace(string(id.Unit))))
	id.SellingPrice = id.SellingPrice.Round(2)
	return id
}

func (p *ProductGroup) Identity() ProductIdentity {
	return ProductIdentity{
		BrandName:       p.BrandName,
		SubCategory:     p.SubCategory,
		ProductName:     p.ProductName,
		QuantityPerItem: p.QuantityPerItem,
		Unit:            p.Unit,
		SellingPrice:    p.SellingPrice,
	}
}

// NewProductGroup builds a group from its identity and a threshold (0 means default).
func NewProductGroup(id ProductIdentity, lowStockThreshold int) *ProductGroup {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &ProductGroup{
		BrandName:         id.BrandName,
		SubCategory:       id.SubCategory,
		ProductName:       id.ProductName,
		QuantityPerItem:   id.QuantityPerItem,
		Unit:              id.Unit,
		SellingPrice:      id.SellingPrice,
		LowStockThreshold: lowStockThreshold,
	}
}
