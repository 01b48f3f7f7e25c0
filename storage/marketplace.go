package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cardify/storefront/internal/checkout"
	"github.com/cardify/storefront/internal/inventory"
)

// GetActiveListing loads a listing joined with its asset and series.
func (s *Storage) GetActiveListing(ctx context.Context, listingID string) (*checkout.Listing, error) {
	row, err := s.Queries.GetActiveListingWithAsset(ctx, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkout.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %s: %w", listingID, err)
	}

	listing := &checkout.Listing{
		ID:            row.ID,
		SellerID:      row.SellerID,
		AssetID:       row.AssetID,
		PriceCents:    row.PriceCents,
		Status:        row.Status,
		AssetTitle:    row.AssetTitle,
		AssetImageURL: row.AssetImageUrl,
	}
	if row.SeriesID.Valid {
		listing.Series = &checkout.Series{
			ID:              row.SeriesID.String,
			Name:            row.SeriesName.String,
			TotalSupply:     row.SeriesTotalSupply.Int64,
			RemainingSupply: row.SeriesRemainingSupply.Int64,
		}
	}
	return listing, nil
}

// GetInventoryItem reads one stocked product.
func (s *Storage) GetInventoryItem(ctx context.Context, productID string) (inventory.Item, error) {
	row, err := s.Queries.GetInventoryItem(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	if err != nil {
		return inventory.Item{}, fmt.Errorf("failed to get inventory item %s: %w", productID, err)
	}

	return inventory.Item{
		ProductID:   row.ProductID,
		Name:        row.Name,
		Description: row.Description,
		PriceCents:  row.PriceCents,
		Stock:       row.Stock,
	}, nil
}
