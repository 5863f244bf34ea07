package inbound

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"mes.GO/api"
	inventoryService "mes.GO/service/inventory"
	trackingService "mes.GO/service/tracking"
)

func init() {
	api.RegisterModule(RegisterInboundRoutes)
}

func RegisterInboundRoutes(apiGroup *echo.Group, db *gorm.DB) {
	ledger := inventoryService.NewLedger(db)
	ledger.OnInbound(trackingService.NewEngine(db).SeedForLotTx)

	g := apiGroup.Group("/orders/inbound")

	// POST /api/orders/inbound – register a receipt, allocate a lot number
	g.POST("", func(c echo.Context) error {
		var req inventoryService.InboundRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		lot, err := ledger.RegisterInbound(req)
		if err != nil {
			return api.InventoryError(c, err)
		}
		return c.JSON(http.StatusCreated, lot)
	})

	// GET /api/orders/inbound – active lots with remaining balance
	g.GET("", func(c echo.Context) error {
		lots, err := ledger.ListActiveLots()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, lots)
	})

	// PUT /api/orders/inbound/:id – quantity/note correction
	g.PUT("/:id", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		var body struct {
			Qty  int64  `json:"qty"`
			Note string `json:"note"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		lot, err := ledger.UpdateInbound(uint(id), body.Qty, body.Note)
		if err != nil {
			return api.InventoryError(c, err)
		}
		return c.JSON(http.StatusOK, lot)
	})

	// DELETE /api/orders/inbound/:id – soft delete, history stays
	g.DELETE("/:id", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		if err := ledger.SoftDeleteInbound(uint(id)); err != nil {
			return api.InventoryError(c, err)
		}
		return c.NoContent(http.StatusOK)
	})
}
