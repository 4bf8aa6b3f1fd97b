package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"farmer-admin/internal/config"
	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
	"farmer-admin/internal/service"
	"farmer-admin/pkg/database"
	"farmer-admin/pkg/jwt"
	"farmer-admin/pkg/logger"
	"farmer-admin/pkg/xlsximport"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	admin    string
	employee string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.NewGormLogger(zap.NewNop(), gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	log := zap.NewNop()
	paging := config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100}

	uow := repository.NewUnitOfWork(db)
	userRepo := repository.NewUserRepo(db)
	txRepo := repository.NewInventoryTransactionRepo(db)

	ledger := service.NewStockLedger(uow, nil, log)
	importer := service.NewBulkImporter(uow, ledger, nil, log)
	invService := service.NewInventoryService(uow, repository.NewInventoryRepo(db), txRepo, ledger, importer, nil, log)
	dispatchService := service.NewDispatchService(uow, repository.NewDispatchRepo(db), ledger, nil, log)
	authService := service.NewAuthService(userRepo, jwt.NewManager("handler-secret", time.Hour, "farmer-admin-test"), log)

	_, err = authService.SeedAdmin(context.Background(), "admin@example.com", "admin123", "Admin")
	require.NoError(t, err)

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Auth:      NewAuthHandler(authService, log),
		User:      NewUserHandler(service.NewUserService(userRepo), paging, log),
		Inventory: NewInventoryHandler(invService, dispatchService, paging, log),
		Farmer:    NewFarmerHandler(service.NewFarmerService(repository.NewFarmerRepo(db), log), paging, log),
		Dashboard: NewDashboardHandler(service.NewDashboardService(repository.NewDashboardRepo(db), txRepo), log),
		Task:      NewTaskHandler(service.NewTaskService(repository.NewTaskRepo(db), userRepo), paging, log),
		Chat:      NewChatHandler(service.NewChatService(repository.NewMessageRepo(db), nil), log),
	}, authService)

	s := &testServer{app: app, db: db}
	s.admin = s.login(t, "admin@example.com", "admin123")

	status, _ := s.do(t, http.MethodPost, "/api/auth/register", s.admin, fiber.Map{
		"email": "emp@example.com", "password": "secret1", "name": "Employee",
	})
	require.Equal(t, fiber.StatusCreated, status)
	s.employee = s.login(t, "emp@example.com", "secret1")
	return s
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, body)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, map[string]interface{}) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func (s *testServer) upload(t *testing.T, token, filename, content string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return s.send(t, req, token)
}

func (s *testServer) createItem(t *testing.T, typ string, qty int) uint {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/inventory/", s.admin, fiber.Map{
		"category": "motor", "type": typ, "specification": "30", "quantity": qty, "unit_price": "15000",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	return uint(body["id"].(float64))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("wrong password", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "admin@example.com", "password": "nope"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, service.ErrInvalidCredentials.Error(), body["error"])
	})

	t.Run("missing fields", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "admin@example.com"})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("protected route without token", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/api/inventory/", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("me", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/api/auth/me", s.employee, nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "emp@example.com", body["email"])
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := s.login(t, "emp@example.com", "secret1")
		status, _ := s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
		require.Equal(t, fiber.StatusOK, status)

		status, body := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Session expired (logged in on another device)", body["error"])
	})
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/users/", s.employee, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body["error"], "Admin roles")

	status, body = s.do(t, http.MethodGet, "/api/users/", s.admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])

	status, _ = s.do(t, http.MethodPost, "/api/auth/register", s.employee, fiber.Map{
		"email": "x@example.com", "password": "secret1", "name": "X",
	})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestInventoryRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.createItem(t, "3hp", 5)

	t.Run("list marks low stock", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/api/inventory/?category=motor", s.employee, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, body["total"])
		items := body["items"].([]interface{})
		require.Len(t, items, 1)
		assert.Contains(t, items[0], "is_low_stock")
	})

	t.Run("invalid filter", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/api/inventory/?category=spaceship", s.admin, nil)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "category", body["field"])
	})

	t.Run("bad id param", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/api/inventory/abc", s.admin, nil)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "id", body["field"])
	})

	t.Run("unknown item", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/api/inventory/999", s.admin, nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("duplicate item", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/inventory/", s.admin, fiber.Map{
			"category": "motor", "type": "3hp", "specification": "30", "quantity": 1,
		})
		assert.Equal(t, fiber.StatusConflict, status)
	})

	t.Run("adjust below zero", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/inventory/"+itoa(id)+"/adjust", s.admin, fiber.Map{"quantity": -9})
		assert.Equal(t, fiber.StatusConflict, status)
		assert.EqualValues(t, id, body["item_id"])
		assert.EqualValues(t, 9, body["requested"])
		assert.EqualValues(t, 5, body["available"])
	})

	t.Run("item transactions", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/api/inventory/"+itoa(id)+"/transactions", s.employee, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, body["total"])
	})

	t.Run("employee cannot delete", func(t *testing.T) {
		status, _ := s.do(t, http.MethodDelete, "/api/inventory/"+itoa(id), s.employee, nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("specs", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/api/inventory/specs/solar", s.employee, nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.NotEmpty(t, body["types"])
	})
}

func TestDispatchRoutes(t *testing.T) {
	s := newTestServer(t)
	motor := s.createItem(t, "5hp", 3)
	panel := s.createItem(t, "7.5hp", 10)
	require.NoError(t, repository.NewFarmerRepo(s.db).Create(context.Background(), &model.Farmer{
		BeneficiaryID: "MTS-1", BeneficiaryName: "Ravi", Scheme: model.SchemeMTS,
	}))

	t.Run("insufficient stock reports the line", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/inventory/dispatch", s.employee, fiber.Map{
			"farmer_beneficiary_id": "MTS-1",
			"items": []fiber.Map{
				{"inventory_id": panel, "quantity": 2},
				{"inventory_id": motor, "quantity": 4},
			},
		})
		assert.Equal(t, fiber.StatusConflict, status)
		assert.EqualValues(t, 1, body["line"])
		assert.EqualValues(t, motor, body["inventory_id"])
		assert.EqualValues(t, 4, body["requested"])
		assert.EqualValues(t, 3, body["available"])
	})

	t.Run("success", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/inventory/dispatch", s.employee, fiber.Map{
			"farmer_beneficiary_id": "MTS-1",
			"items":                 []fiber.Map{{"inventory_id": motor, "quantity": 3, "unit_cost": "100"}},
		})
		require.Equal(t, fiber.StatusCreated, status, body)

		status, body = s.do(t, http.MethodGet, "/api/inventory/dispatches?farmer_id=MTS-1", s.admin, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, body["total"])

		status, body = s.do(t, http.MethodGet, "/api/inventory/"+itoa(motor), s.admin, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 0, body["quantity"])
		assert.Equal(t, string(model.StatusOutOfStock), body["status"])
	})

	t.Run("unknown farmer", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/inventory/dispatch", s.employee, fiber.Map{
			"farmer_beneficiary_id": "NOPE",
			"items":                 []fiber.Map{{"inventory_id": panel, "quantity": 1}},
		})
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

func TestUploadRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("legacy xls is rejected", func(t *testing.T) {
		status, body := s.upload(t, s.admin, "stock.xls", "\xd0\xcf\x11\xe0")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "file", body["field"])
		assert.Contains(t, body["error"], ".xlsx")
	})

	t.Run("broken xlsx is a validation error", func(t *testing.T) {
		status, body := s.upload(t, s.admin, "stock.xlsx", "PK")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "file", body["field"])
	})

	t.Run("other extensions are rejected", func(t *testing.T) {
		status, _ := s.upload(t, s.admin, "stock.txt", "x")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("csv is reconciled", func(t *testing.T) {
		status, body := s.upload(t, s.admin, "stock.csv", "category,type,specification,quantity\nmotor,3hp,30,4\nmotor,,30,1\n")
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Equal(t, "stock.csv", body["filename"])

		result := body["result"].(map[string]interface{})
		assert.EqualValues(t, 2, result["total_rows"])
		assert.Len(t, result["created"], 1)
		assert.Len(t, result["skipped"], 1)
	})

	t.Run("xlsx is reconciled", func(t *testing.T) {
		var file bytes.Buffer
		require.NoError(t, xlsximport.WriteTemplate(&file, xlsximport.Sheet{
			Name:   xlsximport.DataSheet,
			Header: []string{"category", "type", "specification", "quantity"},
			Rows:   [][]string{{"motor", "3hp", "30", "3"}, {"pipe", "5hp", "", "8"}},
		}))

		status, body := s.upload(t, s.admin, "Stock.XLSX", file.String())
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Equal(t, "Stock.XLSX", body["filename"])

		result := body["result"].(map[string]interface{})
		assert.EqualValues(t, 2, result["total_rows"])
		assert.Len(t, result["updated"], 1)
		assert.Len(t, result["created"], 1)
	})

	t.Run("bulk json", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/inventory/bulk", s.admin, []fiber.Map{
			{"category": "motor", "type": "3hp", "specification": "30", "quantity": 2},
		})
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Len(t, body["updated"], 1)
	})
}

func TestTemplateDownload(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/templates/csv", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.admin)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get(fiber.HeaderContentType))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "category")
}

func TestExcelTemplateDownload(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/templates/excel", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.admin)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "inventory_template.xlsx")

	rows, err := xlsximport.Parse(resp.Body, "category", "type", "quantity")
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
