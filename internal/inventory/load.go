package inventory

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Load assembles a snapshot from the three stocked items. The reads are
// independent, so they run concurrently.
func Load(ctx context.Context, src Source) (*Snapshot, error) {
	var card, custom, displayCase Item

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		item, err := src.GetInventoryItem(gctx, ItemLimitedEditionCard)
		if err != nil {
			return fmt.Errorf("load %s: %w", ItemLimitedEditionCard, err)
		}
		card = item
		return nil
	})
	g.Go(func() error {
		item, err := src.GetInventoryItem(gctx, ItemCustomCard)
		if err != nil {
			return fmt.Errorf("load %s: %w", ItemCustomCard, err)
		}
		custom = item
		return nil
	})
	g.Go(func() error {
		item, err := src.GetInventoryItem(gctx, ItemDisplayCase)
		if err != nil {
			return fmt.Errorf("load %s: %w", ItemDisplayCase, err)
		}
		displayCase = item
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Snapshot{
		Inventory:    max(card.Stock, 0),
		PricePerUnit: card.PriceCents,
		Product: Product{
			ID:          card.ProductID,
			Name:        card.Name,
			Description: card.Description,
			PriceCents:  card.PriceCents,
		},
		CustomCard: Product{
			ID:          custom.ProductID,
			Name:        custom.Name,
			Description: custom.Description,
			PriceCents:  custom.PriceCents,
		},
		DisplayCases: DisplayCaseStock{
			Inventory:    max(displayCase.Stock, 0),
			PricePerUnit: displayCase.PriceCents,
			Name:         displayCase.Name,
			Description:  displayCase.Description,
		},
	}, nil
}
