package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cardify/storefront/internal/inventory"
	"github.com/labstack/echo/v4"
)

type InventoryHandler struct {
	source inventory.Source
}

func NewInventoryHandler(source inventory.Source) *InventoryHandler {
	return &InventoryHandler{source: source}
}

// GetInventory handles GET /api/inventory.
func (h *InventoryHandler) GetInventory(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	snap, err := inventory.Load(c.Request().Context(), h.source)
	if err != nil {
		slog.Error("failed to load inventory", "error", err)
		return c.JSON(http.StatusInternalServerError, inventory.Response{
			Success: false,
			Error:   "Failed to load inventory",
		})
	}

	return c.JSON(http.StatusOK, inventory.Response{
		Success: true,
		Data:    snap,
	})
}
