// Package supabase reads marketplace and inventory rows straight from the
// Supabase Postgres database.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cardify/storefront/internal/checkout"
	"github.com/cardify/storefront/internal/inventory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const getActiveListing = `
SELECT
    l.id, l.seller_id, l.asset_id, l.price_cents, l.status,
    a.title, a.image_url,
    s.id, s.name, s.total_supply, s.remaining_supply
FROM marketplace_listings l
JOIN user_assets a ON a.id = l.asset_id
LEFT JOIN series s ON s.id = a.series_id
WHERE l.id = $1 AND l.status = 'active'`

const getInventoryItem = `
SELECT product_id, name, coalesce(description, ''), price_cents, stock
FROM inventory_items
WHERE product_id = $1`

// querier is the part of pgxpool.Pool the store uses.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// Connect opens a pool against databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, q: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) GetActiveListing(ctx context.Context, listingID string) (*checkout.Listing, error) {
	var (
		l               checkout.Listing
		seriesID        *string
		seriesName      *string
		totalSupply     *int64
		remainingSupply *int64
	)
	err := s.q.QueryRow(ctx, getActiveListing, listingID).Scan(
		&l.ID, &l.SellerID, &l.AssetID, &l.PriceCents, &l.Status,
		&l.AssetTitle, &l.AssetImageURL,
		&seriesID, &seriesName, &totalSupply, &remainingSupply,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, checkout.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %s: %w", listingID, err)
	}

	if seriesID != nil {
		l.Series = &checkout.Series{ID: *seriesID}
		if seriesName != nil {
			l.Series.Name = *seriesName
		}
		if totalSupply != nil {
			l.Series.TotalSupply = *totalSupply
		}
		if remainingSupply != nil {
			l.Series.RemainingSupply = *remainingSupply
		}
	}
	return &l, nil
}

func (s *Store) GetInventoryItem(ctx context.Context, productID string) (inventory.Item, error) {
	var item inventory.Item
	err := s.q.QueryRow(ctx, getInventoryItem, productID).Scan(
		&item.ProductID, &item.Name, &item.Description, &item.PriceCents, &item.Stock,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	if err != nil {
		return inventory.Item{}, fmt.Errorf("failed to get inventory item %s: %w", productID, err)
	}
	return item, nil
}
