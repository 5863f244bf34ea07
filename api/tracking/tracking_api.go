package tracking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"mes.GO/api"
	trackingService "mes.GO/service/tracking"
)

func init() {
	api.RegisterModule(RegisterTrackingRoutes)
}

func RegisterTrackingRoutes(apiGroup *echo.Group, db *gorm.DB) {
	engine := trackingService.NewEngine(db)

	g := apiGroup.Group("/tracking")

	// GET /api/tracking/:lotId – progress board for one lot
	g.GET("/:lotId", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("lotId"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
		}
		rows, err := engine.ViewForLot(uint(id))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, rows)
	})

	// POST /api/tracking/init – backfill tracking rows for existing lots
	g.POST("/init", func(c echo.Context) error {
		var body struct {
			OrderInboundIDs []uint `json:"order_inbound_ids"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if len(body.OrderInboundIDs) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_inbound_ids is required and must not be empty"})
		}
		rows, err := engine.InitLots(body.OrderInboundIDs)
		if err != nil {
			return trackingError(c, err)
		}
		return c.JSON(http.StatusCreated, rows)
	})

	// PUT /api/tracking – single status transition
	g.PUT("", func(c echo.Context) error {
		var req trackingService.TransitionRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		row, err := engine.Transition(req.ID, req.ProcessStatus)
		if err != nil {
			return trackingError(c, err)
		}
		return c.JSON(http.StatusOK, row)
	})

	// PUT /api/tracking/batch – independent per-row transitions
	g.PUT("/batch", func(c echo.Context) error {
		var reqs []trackingService.TransitionRequest
		if err := c.Bind(&reqs); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if len(reqs) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "request list must not be empty"})
		}
		return c.JSON(http.StatusOK, engine.BatchTransition(reqs))
	})
}

func trackingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, trackingService.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, trackingService.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
}
