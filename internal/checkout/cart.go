package checkout

import (
	"context"
	"log/slog"
	"net/http"

	stripego "github.com/stripe/stripe-go/v80"
)

type cartLine struct {
	item     CartItem
	quantity int64
	finish   string
}

func (c *Composer) composeCart(ctx context.Context, in Input) (*sessionDraft, error) {
	// First pass: keep recognised products and total them per product so the
	// stock gate sees the whole cart before any price is touched.
	var (
		lines     []cartLine
		requested = make(map[string]int64)
		total     int64
	)
	for i, item := range in.Request.CartItems {
		switch item.ProductID {
		case ProductLimitedEditionCard, ProductCustomCard, ProductDisplayCase:
		default:
			// TODO: surface unknown product ids once the storefront confirms
			// whether they can legitimately appear in a cart.
			slog.Debug("skipping unrecognised cart item", "product_id", item.ProductID, "index", i)
			continue
		}

		quantity, err := parseQuantityField("cartItems.quantity", item.Quantity)
		if err != nil {
			return nil, AsError(err).WithDetail("productId", item.ProductID)
		}

		lines = append(lines, cartLine{
			item:     item,
			quantity: quantity,
			finish:   NormalizeFinish(item.CardFinish),
		})
		requested[item.ProductID] += quantity
		total += quantity
	}

	if len(lines) == 0 {
		return nil, newError(http.StatusBadRequest, CodeInvalidCartItems,
			"Cart does not contain any purchasable items")
	}

	snap, err := c.fetchInventory(ctx, in.Origin)
	if err != nil {
		return nil, err
	}

	if n := requested[ProductLimitedEditionCard]; n > snap.Inventory {
		return nil, insufficientInventory(ProductLimitedEditionCard, n, snap.Inventory)
	}
	if n := requested[ProductDisplayCase]; n > snap.DisplayCases.Inventory {
		return nil, insufficientInventory(ProductDisplayCase, n, snap.DisplayCases.Inventory)
	}

	lineItems := make([]*stripego.CheckoutSessionLineItemParams, 0, len(lines))
	hasCustom := false
	for _, line := range lines {
		switch line.item.ProductID {
		case ProductLimitedEditionCard:
			item, err := c.limitedEditionLineItem(ctx, snap, line.finish, line.quantity, true)
			if err != nil {
				return nil, err
			}
			lineItems = append(lineItems, item)
		case ProductCustomCard:
			hasCustom = true
			lineItems = append(lineItems, customCardLineItem(snap, line.finish, line.item.CustomImageURL, line.quantity))
		case ProductDisplayCase:
			item, err := c.displayCaseLineItem(ctx, snap, line.quantity)
			if err != nil {
				return nil, err
			}
			lineItems = append(lineItems, item)
		}
	}

	return &sessionDraft{
		lineItems: lineItems,
		metadata: map[string]string{
			"purchase_type":   string(ModeCart),
			"total_quantity":  itoa(total),
			"line_item_count": itoa(int64(len(lineItems))),
			"has_custom_card": boolString(hasCustom),
		},
		automaticTax: true,
		cancelPath:   "/cart",
	}, nil
}
