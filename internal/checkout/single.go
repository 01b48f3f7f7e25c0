package checkout

import (
	"context"
	"fmt"

	"github.com/cardify/storefront/internal/inventory"
	"github.com/cardify/storefront/internal/stripe"
	stripego "github.com/stripe/stripe-go/v80"
)

func (c *Composer) composeSingle(ctx context.Context, in Input) (*sessionDraft, error) {
	req := in.Request

	quantity, err := parseQuantityField("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}

	var caseQuantity int64
	if req.IncludeDisplayCase {
		caseQuantity, err = displayCaseQuantity(req.DisplayCaseQuantity)
		if err != nil {
			return nil, err
		}
	}

	snap, err := c.fetchInventory(ctx, in.Origin)
	if err != nil {
		return nil, err
	}

	// Custom cards are printed to order, so only stocked cards are gated.
	if !req.IsCustomCard && quantity > snap.Inventory {
		return nil, insufficientInventory(ProductLimitedEditionCard, quantity, snap.Inventory)
	}
	if req.IncludeDisplayCase && caseQuantity > snap.DisplayCases.Inventory {
		return nil, insufficientInventory(ProductDisplayCase, caseQuantity, snap.DisplayCases.Inventory)
	}

	finish := NormalizeFinish(req.CardFinish)

	var lineItems []*stripego.CheckoutSessionLineItemParams
	if req.IsCustomCard {
		lineItems = append(lineItems, customCardLineItem(snap, finish, req.CustomImageURL, quantity))
	} else {
		item, err := c.limitedEditionLineItem(ctx, snap, finish, quantity, false)
		if err != nil {
			return nil, err
		}
		lineItems = append(lineItems, item)
	}

	if req.IncludeDisplayCase {
		item, err := c.displayCaseLineItem(ctx, snap, caseQuantity)
		if err != nil {
			return nil, err
		}
		lineItems = append(lineItems, item)
	}

	return &sessionDraft{
		lineItems: lineItems,
		metadata: map[string]string{
			"purchase_type":         string(ModeSingle),
			"quantity":              itoa(quantity),
			"include_display_case":  boolString(req.IncludeDisplayCase),
			"display_case_quantity": itoa(caseQuantity),
			"card_finish":           finish,
			"is_custom_card":        boolString(req.IsCustomCard),
			"custom_image_url":      req.CustomImageURL,
		},
		automaticTax: true,
		cancelPath:   "/checkout?canceled=true",
	}, nil
}

// customCardLineItem prices a made-to-order card inline so the finish shows
// up in the description the buyer sees.
func customCardLineItem(snap *inventory.Snapshot, finish, imageURL string, quantity int64) *stripego.CheckoutSessionLineItemParams {
	name := snap.CustomCard.Name
	if name == "" {
		name = "Custom Trading Card"
	}

	return &stripego.CheckoutSessionLineItemParams{
		PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripego.String(currencyUSD),
			UnitAmount: stripego.Int64(snap.CustomCardPrice() + FinishSurcharge(finish)),
			ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripego.String(name),
				Description: stripego.String(fmt.Sprintf("Custom printed card with %s finish", FinishLabel(finish))),
				Images:      imageURLs(imageURL),
				Metadata: map[string]string{
					"product_id":  ProductCustomCard,
					"card_finish": finish,
				},
			},
		},
		Quantity: stripego.Int64(quantity),
	}
}

func (c *Composer) limitedEditionLineItem(ctx context.Context, snap *inventory.Snapshot, finish string, quantity int64, adjustable bool) (*stripego.CheckoutSessionLineItemParams, error) {
	unit := snap.PricePerUnit + FinishSurcharge(finish)

	name := snap.Product.Name
	if name == "" {
		name = "Limited Edition Card"
	}
	if finish != FinishMatte {
		name = fmt.Sprintf("%s (%s)", name, FinishLabel(finish))
	}

	priceID, err := c.findOrCreatePrice(ctx, stripe.PriceSpec{
		LookupKey:   fmt.Sprintf("%s_%s_%d", ProductLimitedEditionCard, finish, unit),
		ProductName: name,
		UnitAmount:  unit,
		Currency:    currencyUSD,
		Metadata: map[string]string{
			"product_id":  ProductLimitedEditionCard,
			"card_finish": finish,
		},
	})
	if err != nil {
		return nil, err
	}

	item := &stripego.CheckoutSessionLineItemParams{
		Price:    stripego.String(priceID),
		Quantity: stripego.Int64(quantity),
	}
	if adjustable {
		item.AdjustableQuantity = adjustableQuantity(snap.Inventory)
	}
	return item, nil
}

func (c *Composer) displayCaseLineItem(ctx context.Context, snap *inventory.Snapshot, quantity int64) (*stripego.CheckoutSessionLineItemParams, error) {
	name := snap.DisplayCases.Name
	if name == "" {
		name = "Card Display Case"
	}
	unit := snap.DisplayCases.PricePerUnit

	priceID, err := c.findOrCreatePrice(ctx, stripe.PriceSpec{
		LookupKey:   fmt.Sprintf("%s_%d", ProductDisplayCase, unit),
		ProductName: name,
		UnitAmount:  unit,
		Currency:    currencyUSD,
		Metadata: map[string]string{
			"product_id": ProductDisplayCase,
		},
	})
	if err != nil {
		return nil, err
	}

	return &stripego.CheckoutSessionLineItemParams{
		Price:    stripego.String(priceID),
		Quantity: stripego.Int64(quantity),
	}, nil
}
