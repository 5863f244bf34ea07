package inbound

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	outboundApi "mes.GO/api/outbound"
	orderEntity "mes.GO/model/entity/order"
	routingEntity "mes.GO/model/entity/routing"
	trackingEntity "mes.GO/model/entity/tracking"
)

const (
	testUser = "admin"
	testPass = "secret"
)

func apiTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("orders_api_test_%s_%d.db", t.Name(), time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(tmpFile) })
	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	if err := db.AutoMigrate(
		&orderEntity.OrderItem{},
		&orderEntity.OrderInbound{},
		&orderEntity.OrderOutbound{},
		&routingEntity.Routing{},
		&routingEntity.OrderItemRouting{},
		&trackingEntity.ProcessTracking{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func apiTestServer(t *testing.T, db *gorm.DB) *echo.Echo {
	t.Helper()
	e := echo.New()
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.BasicAuth(func(user, pass string, c echo.Context) (bool, error) {
		return user == testUser && pass == testPass, nil
	}))
	RegisterInboundRoutes(apiGroup, db)
	outboundApi.RegisterOutboundRoutes(apiGroup, db)
	return e
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func doRequest(e *echo.Echo, method, path string, body interface{}, auth string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seedItemRow(t *testing.T, db *gorm.DB) *orderEntity.OrderItem {
	t.Helper()
	item := &orderEntity.OrderItem{
		CustomerName: "ACME",
		ItemName:     "Bracket",
		ItemCode:     "BRK-01",
		Category:     "NORMAL",
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestInboundAPI_NoAuth_Returns401(t *testing.T) {
	db := apiTestDB(t)
	e := apiTestServer(t, db)

	rec := doRequest(e, http.MethodGet, "/api/orders/inbound", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestInboundAPI_RegisterAndList(t *testing.T) {
	db := apiTestDB(t)
	item := seedItemRow(t, db)
	e := apiTestServer(t, db)
	auth := basicAuth(testUser, testPass)

	rec := doRequest(e, http.MethodPost, "/api/orders/inbound",
		map[string]interface{}{"order_item_id": item.OrderItemID, "qty": 100}, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var lot orderEntity.OrderInbound
	if err := json.Unmarshal(rec.Body.Bytes(), &lot); err != nil {
		t.Fatalf("decode lot: %v", err)
	}
	if lot.LotNo == "" {
		t.Fatal("lot number missing from response")
	}

	rec = doRequest(e, http.MethodGet, "/api/orders/inbound", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var lots []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &lots); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(lots) != 1 {
		t.Fatalf("lots = %d, want 1", len(lots))
	}
	if remaining := lots[0]["remaining"].(float64); remaining != 100 {
		t.Fatalf("remaining = %v, want 100", remaining)
	}
}

func TestInboundAPI_StatusMapping(t *testing.T) {
	db := apiTestDB(t)
	item := seedItemRow(t, db)
	e := apiTestServer(t, db)
	auth := basicAuth(testUser, testPass)

	// Unknown order item -> 404.
	rec := doRequest(e, http.MethodPost, "/api/orders/inbound",
		map[string]interface{}{"order_item_id": 999, "qty": 10}, auth)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown item status = %d, want 404", rec.Code)
	}

	// Non-positive quantity -> 400.
	rec = doRequest(e, http.MethodPost, "/api/orders/inbound",
		map[string]interface{}{"order_item_id": item.OrderItemID, "qty": 0}, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero qty status = %d, want 400", rec.Code)
	}
}

func TestOutboundAPI_InsufficientBalance_Returns409(t *testing.T) {
	db := apiTestDB(t)
	item := seedItemRow(t, db)
	e := apiTestServer(t, db)
	auth := basicAuth(testUser, testPass)

	rec := doRequest(e, http.MethodPost, "/api/orders/inbound",
		map[string]interface{}{"order_item_id": item.OrderItemID, "qty": 50}, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register lot: %d", rec.Code)
	}
	var lot orderEntity.OrderInbound
	json.Unmarshal(rec.Body.Bytes(), &lot)

	rec = doRequest(e, http.MethodPost, "/api/orders/outbound",
		map[string]interface{}{"order_inbound_id": lot.OrderInboundID, "qty": 60}, auth)
	if rec.Code != http.StatusConflict {
		t.Fatalf("overdraw status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(e, http.MethodPost, "/api/orders/outbound",
		map[string]interface{}{"order_inbound_id": lot.OrderInboundID, "qty": 50}, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ship status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out orderEntity.OrderOutbound
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.OutboundNo == "" {
		t.Fatal("outbound number missing from response")
	}
}

func TestInboundAPI_Correction_And_Delete(t *testing.T) {
	db := apiTestDB(t)
	item := seedItemRow(t, db)
	e := apiTestServer(t, db)
	auth := basicAuth(testUser, testPass)

	rec := doRequest(e, http.MethodPost, "/api/orders/inbound",
		map[string]interface{}{"order_item_id": item.OrderItemID, "qty": 100}, auth)
	var lot orderEntity.OrderInbound
	json.Unmarshal(rec.Body.Bytes(), &lot)

	rec = doRequest(e, http.MethodPut, fmt.Sprintf("/api/orders/inbound/%d", lot.OrderInboundID),
		map[string]interface{}{"qty": 80, "note": "recount"}, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("correction status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(e, http.MethodDelete, fmt.Sprintf("/api/orders/inbound/%d", lot.OrderInboundID), nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	// Deleted lot no longer accepts corrections.
	rec = doRequest(e, http.MethodPut, fmt.Sprintf("/api/orders/inbound/%d", lot.OrderInboundID),
		map[string]interface{}{"qty": 90}, auth)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("correction on deleted lot status = %d, want 404", rec.Code)
	}
}
