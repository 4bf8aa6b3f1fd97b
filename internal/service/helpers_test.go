package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
	"farmer-admin/pkg/database"
	"farmer-admin/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a file-backed sqlite database with a single connection so
// concurrent transactions run one after another.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.NewGormLogger(zap.NewNop(), gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type recordedEvent struct {
	Type    string
	Payload map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := payload.(map[string]interface{})
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: m})
}

func (p *recordingPublisher) ofType(eventType string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	events    *recordingPublisher
	ledger    StockLedger
	importer  BulkImporter
	inventory InventoryService
	dispatch  DispatchService
	admin     Actor
	employee  Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	events := &recordingPublisher{}
	log := zap.NewNop()

	uow := repository.NewUnitOfWork(db)
	ledger := NewStockLedger(uow, events, log)
	importer := NewBulkImporter(uow, ledger, events, log)

	return &testEnv{
		db:       db,
		events:   events,
		ledger:   ledger,
		importer: importer,
		inventory: NewInventoryService(uow,
			repository.NewInventoryRepo(db),
			repository.NewInventoryTransactionRepo(db),
			ledger, importer, events, log),
		dispatch: NewDispatchService(uow, repository.NewDispatchRepo(db), ledger, events, log),
		admin:    Actor{ID: uuid.New(), Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin},
		employee: Actor{ID: uuid.New(), Name: "Ravi", Email: "ravi@example.com", Role: model.RoleEmployee},
	}
}

// seedItem creates an item holding qty units, booked as initial stock.
func (e *testEnv) seedItem(t *testing.T, category model.InventoryCategory, typ, spec string, qty int) *model.InventoryItem {
	t.Helper()
	item, err := e.inventory.CreateItem(context.Background(), &CreateInventoryRequest{
		InventoryDraft: InventoryDraft{Category: category, Type: typ, Specification: spec, Quantity: qty},
	}, e.admin)
	require.NoError(t, err)
	return item
}

func (e *testEnv) seedFarmer(t *testing.T, id string) *model.Farmer {
	t.Helper()
	farmer := &model.Farmer{BeneficiaryID: id, BeneficiaryName: "Farmer " + id, Scheme: model.SchemeMTS}
	require.NoError(t, repository.NewFarmerRepo(e.db).Create(context.Background(), farmer))
	return farmer
}

func (e *testEnv) reload(t *testing.T, id uint) *model.InventoryItem {
	t.Helper()
	var item model.InventoryItem
	require.NoError(t, e.db.Unscoped().First(&item, id).Error)
	return &item
}

func (e *testEnv) history(t *testing.T, id uint) []model.InventoryTransaction {
	t.Helper()
	txns, err := repository.NewInventoryTransactionRepo(e.db).History(context.Background(), id)
	require.NoError(t, err)
	return txns
}

// replay folds an item's ledger into the quantity it implies.
func replay(txns []model.InventoryTransaction) int {
	qty := 0
	for _, t := range txns {
		qty += t.SignedDelta()
	}
	return qty
}

func ptr[T any](v T) *T {
	return &v
}
