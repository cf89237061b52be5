package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/internal/inventory"
	"github.com/biztrackhq/biztrack-backend/internal/orders"
	"github.com/biztrackhq/biztrack-backend/pkg/auth"
	"github.com/biztrackhq/biztrack-backend/pkg/config"
	dbpkg "github.com/biztrackhq/biztrack-backend/pkg/db"
	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	"github.com/biztrackhq/biztrack-backend/pkg/metrics"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox"
)

func newTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "biztrack-test", ExpirationMinutes: 60},
	}
}

func newTestServices(t *testing.T) (orders.Service, inventory.Service) {
	t.Helper()
	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Customer{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	inventorySvc, err := inventory.NewService(inventory.NewRepository(conn), emitter)
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(conn), dbpkg.FromGorm(conn), emitter, inventorySvc)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	return ordersSvc, inventorySvc
}

func mintToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID:     uuid.New(),
		BusinessID: uuid.New(),
		Role:       role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	cfg := newTestConfig()
	ordersSvc, inventorySvc := newTestServices(t)
	router := NewRouter(cfg, nil, nil, nil, nil, ordersSvc, inventorySvc)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if env := rec.Header().Get("X-BizTrack-Env"); env != "dev" {
			t.Fatalf("%s: expected env header, got %q", path, env)
		}
	}
}

func TestAPIRoutesRequireAuth(t *testing.T) {
	cfg := newTestConfig()
	ordersSvc, inventorySvc := newTestServices(t)
	router := NewRouter(cfg, nil, nil, nil, nil, ordersSvc, inventorySvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestOrderFlowThroughRouter(t *testing.T) {
	cfg := newTestConfig()
	ordersSvc, inventorySvc := newTestServices(t)
	router := NewRouter(cfg, nil, nil, nil, nil, ordersSvc, inventorySvc)
	token := mintToken(t, cfg, enums.UserRoleOwner)

	body := `{"items":[{"product_name":"Mug","quantity":1,"unit_price":"12.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Order struct {
				OrderNumber string `json:"order_number"`
			} `json:"order"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(envelope.Data.Order.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", envelope.Data.Order.OrderNumber)
	}
}

func TestDeleteOrderRequiresElevatedRole(t *testing.T) {
	cfg := newTestConfig()
	ordersSvc, inventorySvc := newTestServices(t)
	router := NewRouter(cfg, nil, nil, nil, nil, ordersSvc, inventorySvc)
	token := mintToken(t, cfg, enums.UserRoleStaff)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff delete, got %d", rec.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	cfg := newTestConfig()
	ordersSvc, inventorySvc := newTestServices(t)
	router := NewRouter(cfg, nil, nil, nil, metrics.NewHTTPMetrics(), ordersSvc, inventorySvc)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics scrape, got %d", rec.Code)
	}
}
