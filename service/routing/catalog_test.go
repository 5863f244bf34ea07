package routing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mes.GO/core/cache"
	orderEntity "mes.GO/model/entity/order"
	routingEntity "mes.GO/model/entity/routing"
)

func catalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("catalog_test_%s_%d.db", t.Name(), time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(tmpFile) })
	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&orderEntity.OrderItem{},
		&routingEntity.Routing{},
		&routingEntity.OrderItemRouting{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// The step cache is process-wide; stale entries from another test
	// would otherwise leak across per-test databases.
	cache.GetInstance().DeleteByTag(stepsCacheTag)
	return db
}

func mustSaveStep(t *testing.T, c *Catalog, code, name string, minutes int) *routingEntity.Routing {
	t.Helper()
	step, err := c.SaveStep(StepInput{ProcessCode: code, ProcessName: name, ProcessTime: minutes})
	if err != nil {
		t.Fatalf("SaveStep(%s): %v", code, err)
	}
	return step
}

func TestSaveStep_DuplicateCode(t *testing.T) {
	db := catalogTestDB(t)
	c := NewCatalog(db)

	mustSaveStep(t, c, "CUT", "Cutting", 10)

	_, err := c.SaveStep(StepInput{ProcessCode: "CUT", ProcessName: "Cutting again", ProcessTime: 15})
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("err = %v, want ErrDuplicateCode", err)
	}
}

func TestListSteps(t *testing.T) {
	db := catalogTestDB(t)
	c := NewCatalog(db)

	mustSaveStep(t, c, "CUT", "Cutting", 10)
	mustSaveStep(t, c, "WELD", "Welding", 20)

	steps, err := c.ListSteps()
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
}

func TestCreateOrderItem_WithSteps(t *testing.T) {
	db := catalogTestDB(t)
	c := NewCatalog(db)

	cut := mustSaveStep(t, c, "CUT", "Cutting", 10)
	weld := mustSaveStep(t, c, "WELD", "Welding", 20)

	item, err := c.CreateOrderItem(OrderItemInput{
		CustomerName: "ACME",
		ItemName:     "Bracket",
		ItemCode:     "BRK-01",
		Steps: []StepSelection{
			{RoutingID: weld.RoutingID, ProcessNo: 2},
			{RoutingID: cut.RoutingID, ProcessNo: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrderItem: %v", err)
	}
	if item.Category != "NORMAL" {
		t.Fatalf("category = %q, want NORMAL default", item.Category)
	}

	steps, err := c.StepsFor(item.OrderItemID)
	if err != nil {
		t.Fatalf("StepsFor: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	if steps[0].ProcessCode != "CUT" || steps[1].ProcessCode != "WELD" {
		t.Fatalf("steps out of order: %+v", steps)
	}
}

func TestCreateOrderItem_RejectsBadSelections(t *testing.T) {
	db := catalogTestDB(t)
	c := NewCatalog(db)

	cut := mustSaveStep(t, c, "CUT", "Cutting", 10)

	_, err := c.CreateOrderItem(OrderItemInput{
		ItemCode: "X",
		Steps:    []StepSelection{{RoutingID: cut.RoutingID, ProcessNo: 0}},
	})
	if !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("process_no 0: err = %v, want ErrInvalidStep", err)
	}

	_, err = c.CreateOrderItem(OrderItemInput{
		ItemCode: "X",
		Steps: []StepSelection{
			{RoutingID: cut.RoutingID, ProcessNo: 1},
			{RoutingID: cut.RoutingID, ProcessNo: 2},
		},
	})
	if !errors.Is(err, ErrDuplicateStep) {
		t.Fatalf("reused step: err = %v, want ErrDuplicateStep", err)
	}

	_, err = c.CreateOrderItem(OrderItemInput{
		ItemCode: "X",
		Steps:    []StepSelection{{RoutingID: 404, ProcessNo: 1}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown routing: err = %v, want ErrNotFound", err)
	}

	var n int64
	db.Model(&orderEntity.OrderItem{}).Count(&n)
	if n != 0 {
		t.Fatalf("items = %d, want 0 after rejected creations", n)
	}
}

func TestStepsFor_Cached(t *testing.T) {
	db := catalogTestDB(t)
	c := NewCatalog(db)

	cut := mustSaveStep(t, c, "CUT", "Cutting", 10)
	item, err := c.CreateOrderItem(OrderItemInput{
		ItemCode: "BRK-01",
		Steps:    []StepSelection{{RoutingID: cut.RoutingID, ProcessNo: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrderItem: %v", err)
	}

	if _, err := c.StepsFor(item.OrderItemID); err != nil {
		t.Fatalf("StepsFor: %v", err)
	}

	// Mutate behind the cache; the cached sequence must still be served.
	db.Exec("DELETE FROM order_item_routing")

	steps, err := c.StepsFor(item.OrderItemID)
	if err != nil {
		t.Fatalf("cached StepsFor: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("steps = %d, want cached 1", len(steps))
	}
}

func TestDeleteStep_CascadesAndFlushes(t *testing.T) {
	db := catalogTestDB(t)
	c := NewCatalog(db)

	cut := mustSaveStep(t, c, "CUT", "Cutting", 10)
	weld := mustSaveStep(t, c, "WELD", "Welding", 20)
	item, err := c.CreateOrderItem(OrderItemInput{
		ItemCode: "BRK-01",
		Steps: []StepSelection{
			{RoutingID: cut.RoutingID, ProcessNo: 1},
			{RoutingID: weld.RoutingID, ProcessNo: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrderItem: %v", err)
	}
	// Warm the cache so the flush is observable.
	if _, err := c.StepsFor(item.OrderItemID); err != nil {
		t.Fatalf("StepsFor: %v", err)
	}

	if err := c.DeleteStep(cut.RoutingID); err != nil {
		t.Fatalf("DeleteStep: %v", err)
	}

	steps, err := c.StepsFor(item.OrderItemID)
	if err != nil {
		t.Fatalf("StepsFor after delete: %v", err)
	}
	if len(steps) != 1 || steps[0].ProcessCode != "WELD" {
		t.Fatalf("steps = %+v, want only WELD", steps)
	}

	var links int64
	db.Model(&routingEntity.OrderItemRouting{}).Where("routing_id = ?", cut.RoutingID).Count(&links)
	if links != 0 {
		t.Fatalf("links referencing deleted step = %d, want 0", links)
	}
}

func TestDeleteStep_Unknown(t *testing.T) {
	db := catalogTestDB(t)
	c := NewCatalog(db)

	if err := c.DeleteStep(404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
