package routing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"mes.GO/api"
	routingService "mes.GO/service/routing"
)

func init() {
	api.RegisterModule(RegisterRoutingRoutes)
}

func RegisterRoutingRoutes(apiGroup *echo.Group, db *gorm.DB) {
	catalog := routingService.NewCatalog(db)

	g := apiGroup.Group("/routing")

	// POST /api/routing – add a catalog process step
	g.POST("", func(c echo.Context) error {
		var in routingService.StepInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		step, err := catalog.SaveStep(in)
		if err != nil {
			return routingError(c, err)
		}
		return c.JSON(http.StatusCreated, step)
	})

	// GET /api/routing – full catalog
	g.GET("", func(c echo.Context) error {
		steps, err := catalog.ListSteps()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, steps)
	})

	// DELETE /api/routing/:id – remove a step, cascading item links
	g.DELETE("/:id", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		if err := catalog.DeleteStep(uint(id)); err != nil {
			return routingError(c, err)
		}
		return c.NoContent(http.StatusOK)
	})

	// POST /api/routing/items – order item with its step selection
	g.POST("/items", func(c echo.Context) error {
		var in routingService.OrderItemInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		item, err := catalog.CreateOrderItem(in)
		if err != nil {
			return routingError(c, err)
		}
		return c.JSON(http.StatusCreated, item)
	})

	// GET /api/routing/items/:id/steps – ordered step sequence
	g.GET("/items/:id/steps", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		steps, err := catalog.StepsFor(uint(id))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, steps)
	})
}

func routingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, routingService.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, routingService.ErrDuplicateCode),
		errors.Is(err, routingService.ErrDuplicateStep),
		errors.Is(err, routingService.ErrInvalidStep):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
}
