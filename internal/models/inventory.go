package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BeverageType is the kind of beverage an inventory item represents.
type BeverageType string

const (
	BeverageCoffee BeverageType = "coffee"
	BeverageTea    BeverageType = "tea"
)

// StockState is the derived availability of an inventory item. It is never
// stored independently; it is recomputed from the on-hand quantity and warn
// limit on every read so a stock mutation can never leave it stale.
type StockState string

const (
	StockAvailable    StockState = "AVAILABLE"
	StockFewRemaining StockState = "FEW_REMAINING"
	StockOutOfStock   StockState = "OUT_OF_STOCK"
)

// DefaultWarnLimit is the warn limit applied to new items when none is given.
const DefaultWarnLimit = 3

// ClassifyStock derives the availability state of an item from its on-hand
// quantity and warn limit. It is a pure function of its two inputs, total
// over all non-negative integers.
func ClassifyStock(onHand, warnLimit int) StockState {
	switch {
	case onHand == 0:
		return StockOutOfStock
	case onHand <= warnLimit:
		return StockFewRemaining
	default:
		return StockAvailable
	}
}

// InventoryItem represents a beverage offered by the shop. Items are owned
// by the shop and mutated only through employee operations.
type InventoryItem struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name         string          `json:"name" validate:"required,min=2,max=150"`
	BeverageType BeverageType    `json:"beverage_type" gorm:"type:varchar(10);default:coffee" validate:"omitempty,oneof=coffee tea"`
	Caffeinated  bool            `json:"caffeinated"`
	Flavored     bool            `json:"flavored"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(5,2)"`
	OnHand       int             `json:"on_hand"`
	WarnLimit    int             `json:"warn_limit"`
	State        StockState      `json:"state" gorm:"-"` // derived, see Refresh
	gorm.Model                   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Refresh recomputes the derived State field. Callers that mutate OnHand or
// WarnLimit must call this before exposing the item.
func (i *InventoryItem) Refresh() {
	i.State = ClassifyStock(i.OnHand, i.WarnLimit)
}

// IsOutOfStock reports whether the item's stock is depleted.
func (i *InventoryItem) IsOutOfStock() bool {
	return i.OnHand == 0
}

// PublicInventoryItem is the customer-facing view of an inventory item. It
// exposes the derived availability state but not the raw stock quantities,
// which only employees may see.
type PublicInventoryItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BeverageType BeverageType    `json:"beverage_type"`
	Caffeinated  bool            `json:"caffeinated"`
	Flavored     bool            `json:"flavored"`
	Price        decimal.Decimal `json:"price"`
	State        StockState      `json:"state"`
}

// Public returns the customer-facing view of this item.
func (i *InventoryItem) Public() PublicInventoryItem {
	return PublicInventoryItem{
		ID:           i.ID,
		Name:         i.Name,
		BeverageType: i.BeverageType,
		Caffeinated:  i.Caffeinated,
		Flavored:     i.Flavored,
		Price:        i.Price,
		State:        ClassifyStock(i.OnHand, i.WarnLimit),
	}
}
