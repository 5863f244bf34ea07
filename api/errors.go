package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mes.GO/core/sequence"
	inventoryService "mes.GO/service/inventory"
)

// InventoryError maps ledger failures onto HTTP statuses so the front
// end can show "insufficient balance" apart from "try again later".
func InventoryError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, inventoryService.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, inventoryService.ErrInvalidQuantity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, inventoryService.ErrInsufficientBalance):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, sequence.ErrExhausted):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, sequence.ErrConflictExhausted):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "number allocation busy, try again later"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
}
