package inventory

import (
	"context"
	"errors"
)

// Inventory row ids. These match the cart product ids.
const (
	ItemLimitedEditionCard = "limited-edition-card"
	ItemCustomCard         = "custom-card"
	ItemDisplayCase        = "display-case"
)

var ErrItemNotFound = errors.New("inventory item not found")

// Snapshot is a point-in-time read of stock and prices. It is not a
// reservation: stock can change before the buyer pays.
type Snapshot struct {
	Inventory    int64            `json:"inventory"`
	PricePerUnit int64            `json:"pricePerUnit"`
	Product      Product          `json:"product"`
	CustomCard   Product          `json:"customCard"`
	DisplayCases DisplayCaseStock `json:"displayCases"`
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
}

type DisplayCaseStock struct {
	Inventory    int64  `json:"inventory"`
	PricePerUnit int64  `json:"pricePerUnit"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

// Item is one stocked product as stored.
type Item struct {
	ProductID   string
	Name        string
	Description string
	PriceCents  int64
	Stock       int64
}

// Source reads stocked items from storage.
type Source interface {
	GetInventoryItem(ctx context.Context, productID string) (Item, error)
}

// CustomCardPrice is the per-card base price of made-to-order cards.
func (s *Snapshot) CustomCardPrice() int64 {
	if s.CustomCard.PriceCents > 0 {
		return s.CustomCard.PriceCents
	}
	return s.PricePerUnit
}
