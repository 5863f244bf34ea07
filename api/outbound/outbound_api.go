package outbound

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"mes.GO/api"
	inventoryService "mes.GO/service/inventory"
)

func init() {
	api.RegisterModule(RegisterOutboundRoutes)
}

func RegisterOutboundRoutes(apiGroup *echo.Group, db *gorm.DB) {
	ledger := inventoryService.NewLedger(db)

	g := apiGroup.Group("/orders/outbound")

	// POST /api/orders/outbound – ship against a lot's remaining balance
	g.POST("", func(c echo.Context) error {
		var req inventoryService.OutboundRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		out, err := ledger.RegisterOutbound(req)
		if err != nil {
			return api.InventoryError(c, err)
		}
		return c.JSON(http.StatusCreated, out)
	})

	// GET /api/orders/outbound – shipment history
	g.GET("", func(c echo.Context) error {
		outs, err := ledger.ListOutbounds()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, outs)
	})

	// DELETE /api/orders/outbound/:id – cancel a shipment
	g.DELETE("/:id", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		if err := ledger.SoftDeleteOutbound(uint(id)); err != nil {
			return api.InventoryError(c, err)
		}
		return c.NoContent(http.StatusOK)
	})
}
