package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Merchant struct {
	ID               string         `gorm:"primaryKey;type:uuid" json:"id"`
	CompanyName      string         `gorm:"not null;uniqueIndex:idx_merchant_identity" json:"company_name"`
	ICO              string         `gorm:"column:ico;not null;uniqueIndex:idx_merchant_identity" json:"ico"`
	DIC              string         `gorm:"column:dic" json:"dic"`
	VATNumber        string         `gorm:"column:vat_number" json:"vat_number"`
	IsVATPayer       bool           `gorm:"column:is_vat_payer" json:"is_vat_payer"`
	Address          datatypes.JSON `json:"address"`
	ContactFirstName string         `json:"contact_first_name"`
	ContactLastName  string         `json:"contact_last_name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	PhonePrefix      string         `json:"phone_prefix"`
	Status           string         `gorm:"default:'active'" json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// WarehouseItem is stock (terminals, SIM cards, printers) managed from the
// admin back office.
type WarehouseItem struct {
	ID        string          `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	SKU       string          `gorm:"column:sku;index" json:"sku"`
	Category  string          `gorm:"index" json:"category"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Status    string          `gorm:"default:'in_stock'" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
