package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusOutOfStock ProductStatus = "out of stock"
)

// LowStockThreshold is the quantity under which a product counts as low stock.
const LowStockThreshold = 5

type Product struct {
	ID                 string         `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Name               string         `gorm:"not null" json:"name"`
	Description        string         `gorm:"type:text" json:"description"`
	NewPrice           float64        `gorm:"not null" json:"newprice"`
	ComparePrice       float64        `json:"comparePrice"`
	Image              string         `json:"image"`
	ImagePublicID      string         `json:"imagePublicId"`
	Category           string         `gorm:"index;not null" json:"category"`
	NewArrival         bool           `gorm:"index" json:"newArrival"`
	NewArrivalFeatured bool           `json:"newArrivalFeatured"`
	Quantity           int            `gorm:"not null;default:0" json:"quantity"`
	Unit               string         `json:"unit"`
	Sizes              []string       `gorm:"serializer:json;type:text" json:"size"`
	Status             ProductStatus  `gorm:"type:varchar(20);default:'active';index" json:"status"`
	IsFeatured         bool           `json:"isFeatured"`
	CreatedAt          time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// HasSize reports whether size is one of the product's sizes. A product
// without sizes accepts an empty size only.
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// DeriveStatus returns the status a product should carry for the given
// quantity and requested status: nothing in stock wins, an explicit
// inactive is kept, everything else is active.
func DeriveStatus(quantity int, requested ProductStatus) ProductStatus {
	switch {
	case quantity == 0:
		return ProductStatusOutOfStock
	case requested == ProductStatusInactive:
		return ProductStatusInactive
	default:
		return ProductStatusActive
	}
}
