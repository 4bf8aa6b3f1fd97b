package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
	"farmer-admin/pkg/csvimport"
	"farmer-admin/pkg/xlsximport"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateInventoryRequest struct {
	InventoryDraft
	DocumentURL string                `json:"document_url"`
	Status      model.InventoryStatus `json:"status" validate:"omitempty,inventory_status"`
}

// UpdateInventoryRequest is a partial update; nil fields are left alone.
type UpdateInventoryRequest struct {
	Category      *model.InventoryCategory `json:"category" validate:"omitempty,inventory_category"`
	Type          *string                  `json:"type" validate:"omitempty,min=1,max=50"`
	Specification *string                  `json:"specification" validate:"omitempty,max=50"`
	Quantity      *int                     `json:"quantity" validate:"omitempty,gte=0"`
	MinStockLevel *int                     `json:"min_stock_level" validate:"omitempty,gte=0"`
	UnitPrice     *decimal.Decimal         `json:"unit_price"`
	Supplier      *string                  `json:"supplier" validate:"omitempty,max=255"`
	PartNumber    *string                  `json:"part_number" validate:"omitempty,max=100"`
	Description   *string                  `json:"description"`
	DocumentURL   *string                  `json:"document_url"`
	Location      *string                  `json:"location" validate:"omitempty,max=100"`
	Status        *model.InventoryStatus   `json:"status" validate:"omitempty,inventory_status"`
}

type AdjustStockRequest struct {
	Delta    int                 `json:"quantity"`
	UnitCost decimal.NullDecimal `json:"unit_cost"`
	Notes    string              `json:"notes" validate:"max=500"`
}

// InventoryDashboard is InventoryStats plus the latest ledger rows.
type InventoryDashboard struct {
	*repository.InventoryStats
	RecentTransactions []model.InventoryTransaction `json:"recent_transactions"`
}

// UploadResult is the reconcile outcome of a file, including rows that never
// became drafts.
type UploadResult struct {
	*ReconcileResult
	TotalRows int `json:"total_rows"`
}

type InventoryService interface {
	ListItems(ctx context.Context, filter repository.InventoryFilter, page repository.Page) ([]model.InventoryItem, int64, error)
	GetItem(ctx context.Context, id uint) (*model.InventoryItem, error)
	CreateItem(ctx context.Context, req *CreateInventoryRequest, actor Actor) (*model.InventoryItem, error)
	UpdateItem(ctx context.Context, id uint, req *UpdateInventoryRequest, actor Actor) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, id uint, actor Actor) error
	AdjustStock(ctx context.Context, id uint, req *AdjustStockRequest, actor Actor) (*model.InventoryTransaction, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter, page repository.Page) ([]model.InventoryTransaction, int64, error)
	BulkCreate(ctx context.Context, drafts []InventoryDraft, actor Actor) (*ReconcileResult, error)
	UploadCSV(ctx context.Context, r io.Reader, actor Actor) (*UploadResult, error)
	CSVTemplate() ([]byte, error)
	UploadExcel(ctx context.Context, r io.Reader, actor Actor) (*UploadResult, error)
	ExcelTemplate() ([]byte, error)
	Dashboard(ctx context.Context) (*InventoryDashboard, error)
}

type inventoryService struct {
	uow             repository.UnitOfWork
	inventoryRepo   repository.InventoryRepository
	transactionRepo repository.InventoryTransactionRepository
	ledger          StockLedger
	importer        BulkImporter
	events          EventPublisher
	log             *zap.Logger
}

func NewInventoryService(
	uow repository.UnitOfWork,
	inventoryRepo repository.InventoryRepository,
	transactionRepo repository.InventoryTransactionRepository,
	ledger StockLedger,
	importer BulkImporter,
	events EventPublisher,
	log *zap.Logger,
) InventoryService {
	return &inventoryService{
		uow:             uow,
		inventoryRepo:   inventoryRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger,
		importer:        importer,
		events:          events,
		log:             log.Named("inventory"),
	}
}

func (s *inventoryService) ListItems(ctx context.Context, filter repository.InventoryFilter, page repository.Page) ([]model.InventoryItem, int64, error) {
	return s.inventoryRepo.List(ctx, filter, page)
}

func (s *inventoryService) GetItem(ctx context.Context, id uint) (*model.InventoryItem, error) {
	item, err := s.inventoryRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &ItemNotFoundError{ItemID: id}
	}
	return item, err
}

// CreateItem inserts the item empty and books any opening stock as initial_stock.
func (s *inventoryService) CreateItem(ctx context.Context, req *CreateInventoryRequest, actor Actor) (*model.InventoryItem, error) {
	if err := req.InventoryDraft.check(); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var item *model.InventoryItem
	var txn *model.InventoryTransaction
	err := s.uow.Execute(ctx, func(repos repository.Repositories) error {
		_, err := repos.Inventory().FindByNaturalKey(ctx, req.Category, req.Type, req.Specification)
		if err == nil {
			return &AlreadyExistsError{Resource: "inventory item", Key: naturalKey(req.Category, req.Type, req.Specification)}
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		item = req.newItem(actor)
		item.DocumentURL = req.DocumentURL
		if req.Status == model.StatusInactive && req.Quantity > 0 {
			item.Status = model.StatusInactive
		}
		if err := repos.Inventory().Create(ctx, item); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return &AlreadyExistsError{Resource: "inventory item", Key: naturalKey(req.Category, req.Type, req.Specification)}
			}
			return err
		}

		if req.Quantity > 0 {
			txn, err = s.ledger.ApplyInTx(ctx, repos, StockChange{
				ItemID:        item.ID,
				Delta:         req.Quantity,
				ReferenceType: model.RefInitialStock,
				UnitCost:      req.UnitPrice,
				Notes:         "Initial stock",
			}, actor)
			if err != nil {
				return err
			}
			item = txn.Inventory
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("inventory item created",
		zap.Uint("item_id", item.ID),
		zap.String("key", naturalKey(item.Category, item.Type, item.Specification)),
		zap.Int("quantity", item.Quantity),
	)
	if txn != nil {
		publishStockUpdate(s.events, txn, actor)
	}
	return s.GetItem(ctx, item.ID)
}

// UpdateItem applies descriptive changes and routes a quantity change through
// the ledger as a manual adjustment, all in one transaction.
func (s *inventoryService) UpdateItem(ctx context.Context, id uint, req *UpdateInventoryRequest, actor Actor) (*model.InventoryItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, &ValidationError{Field: "unit_price", Reason: "must be at least 0"}
	}

	var txn *model.InventoryTransaction
	err := s.uow.Execute(ctx, func(repos repository.Repositories) error {
		item, err := repos.Inventory().FindByIDForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return &ItemNotFoundError{ItemID: id}
		}
		if err != nil {
			return err
		}

		req.apply(item)
		item.UpdatedBy = actor.Ref()
		if err := repos.Inventory().UpdateDetails(ctx, item); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return &AlreadyExistsError{Resource: "inventory item", Key: naturalKey(item.Category, item.Type, item.Specification)}
			}
			return err
		}

		if req.Quantity != nil && *req.Quantity != item.Quantity {
			txn, err = s.ledger.ApplyInTx(ctx, repos, StockChange{
				ItemID:        id,
				Delta:         *req.Quantity - item.Quantity,
				ReferenceType: model.RefManualAdjustment,
				Notes:         "Manual quantity adjustment",
			}, actor)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if txn != nil {
		publishStockUpdate(s.events, txn, actor)
	}
	return s.GetItem(ctx, id)
}

func (r *UpdateInventoryRequest) apply(item *model.InventoryItem) {
	if r.Category != nil {
		item.Category = *r.Category
	}
	if r.Type != nil {
		item.Type = strings.TrimSpace(*r.Type)
	}
	if r.Specification != nil {
		item.Specification = strings.TrimSpace(*r.Specification)
	}
	if r.MinStockLevel != nil {
		item.MinStockLevel = *r.MinStockLevel
	}
	if r.UnitPrice != nil {
		item.UnitPrice = decimal.NewNullDecimal(*r.UnitPrice)
	}
	if r.Supplier != nil {
		item.Supplier = *r.Supplier
	}
	if r.PartNumber != nil {
		item.PartNumber = *r.PartNumber
	}
	if r.Description != nil {
		item.Description = *r.Description
	}
	if r.DocumentURL != nil {
		item.DocumentURL = *r.DocumentURL
	}
	if r.Location != nil {
		item.Location = *r.Location
	}
	if r.Status != nil {
		item.Status = *r.Status
	}
	// The status must agree with the quantity the item ends up with, not the
	// one it had before this update.
	target := item.Quantity
	if r.Quantity != nil {
		target = *r.Quantity
	}
	item.Status = model.DeriveStatus(item.Status, target)
}

// DeleteItem soft-deletes the item; its transactions stay for audit.
func (s *inventoryService) DeleteItem(ctx context.Context, id uint, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	err := s.inventoryRepo.Delete(ctx, id, actor.Ref())
	if errors.Is(err, repository.ErrNotFound) {
		return &ItemNotFoundError{ItemID: id}
	}
	if err != nil {
		return err
	}
	s.log.Info("inventory item deleted", zap.Uint("item_id", id), zap.String("actor", actor.Ref()))
	return nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, id uint, req *AdjustStockRequest, actor Actor) (*model.InventoryTransaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	notes := req.Notes
	if notes == "" {
		notes = "Manual quantity adjustment"
	}
	return s.ledger.ApplyStockChange(ctx, StockChange{
		ItemID:        id,
		Delta:         req.Delta,
		ReferenceType: model.RefManualAdjustment,
		UnitCost:      req.UnitCost,
		Notes:         notes,
	}, actor)
}

func (s *inventoryService) ListTransactions(ctx context.Context, filter repository.TransactionFilter, page repository.Page) ([]model.InventoryTransaction, int64, error) {
	if filter.TransactionType != "" && !filter.TransactionType.Valid() {
		return nil, 0, &ValidationError{Field: "transaction_type", Reason: "is not a valid transaction type"}
	}
	if filter.ReferenceType != "" && !filter.ReferenceType.Valid() {
		return nil, 0, &ValidationError{Field: "reference_type", Reason: "is not a valid reference type"}
	}
	return s.transactionRepo.List(ctx, filter, page)
}

func (s *inventoryService) BulkCreate(ctx context.Context, drafts []InventoryDraft, actor Actor) (*ReconcileResult, error) {
	if len(drafts) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must contain at least one item"}
	}
	return s.importer.Reconcile(ctx, drafts, actor)
}

var csvRequiredColumns = []string{"category", "type", "quantity"}

var csvTemplateHeader = []string{
	"category", "type", "specification", "quantity", "min_stock_level",
	"unit_price", "supplier", "part_number", "description", "location",
}

var csvTemplateRows = [][]string{
	{"motor", "3hp", "30", "10", "5", "15000.00", "Motor Supplier Ltd", "MOT-3HP-30", "3HP motor with 30m head", "Warehouse A"},
	{"motor", "5hp", "50", "8", "3", "25000.00", "Motor Supplier Ltd", "MOT-5HP-50", "5HP motor with 50m head", "Warehouse A"},
	{"controller", "3hp", "", "15", "5", "8000.00", "Control Systems Inc", "CTRL-3HP", "3HP pump controller", "Warehouse B"},
	{"solar_panel", "520wp", "", "50", "20", "12000.00", "Solar Tech Ltd", "SOLAR-520", "520W solar panel", "Warehouse C"},
	{"bos", "3hp", "", "12", "5", "5000.00", "BOS Systems Ltd", "BOS-3HP", "3HP Balance of System", "Warehouse D"},
	{"structure", "5hp", "", "20", "8", "3000.00", "Structure Co", "STRUCT-5HP", "5HP mounting structure", "Warehouse E"},
	{"wire", "7.5hp", "", "100", "20", "500.00", "Cable Works", "WIRE-7.5HP", "7.5HP system wiring", "Warehouse F"},
	{"pipe", "3hp", "", "50", "15", "200.00", "Pipe Industries", "PIPE-3HP", "3HP system piping", "Warehouse G"},
}

func (s *inventoryService) CSVTemplate() ([]byte, error) {
	var buf bytes.Buffer
	if err := csvimport.WriteTemplate(&buf, csvTemplateHeader, csvTemplateRows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var excelInstructionsHeader = []string{"Column", "Required", "Description"}

var excelInstructions = [][]string{
	{"category", "Yes", "motor, controller, solar_panel, bos, structure, wire, pipe"},
	{"type", "Yes", "3hp, 5hp, 7.5hp, 520wp, 540wp"},
	{"specification", "No", "For motors: 30, 50, 70, 100 (pump head)"},
	{"quantity", "Yes", "Stock quantity (number)"},
	{"min_stock_level", "No", "Minimum stock level for alerts (default: 10)"},
	{"unit_price", "No", "Unit price (optional)"},
	{"supplier", "No", "Supplier name (optional)"},
	{"part_number", "No", "Part number (optional)"},
	{"description", "No", "Item description (optional)"},
	{"location", "No", "Storage location (optional)"},
}

func (s *inventoryService) ExcelTemplate() ([]byte, error) {
	var buf bytes.Buffer
	err := xlsximport.WriteTemplate(&buf,
		xlsximport.Sheet{Name: xlsximport.DataSheet, Header: csvTemplateHeader, Rows: csvTemplateRows},
		xlsximport.Sheet{Name: "Instructions", Header: excelInstructionsHeader, Rows: excelInstructions},
	)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UploadCSV turns a file into drafts and reconciles them. Rows that cannot be
// parsed are reported as skipped next to the reconcile outcome.
func (s *inventoryService) UploadCSV(ctx context.Context, r io.Reader, actor Actor) (*UploadResult, error) {
	rows, err := csvimport.Parse(r, csvRequiredColumns...)
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: err.Error()}
	}
	return s.reconcileRows(ctx, rows, actor)
}

// UploadExcel is UploadCSV for .xlsx workbooks.
func (s *inventoryService) UploadExcel(ctx context.Context, r io.Reader, actor Actor) (*UploadResult, error) {
	rows, err := xlsximport.Parse(r, csvRequiredColumns...)
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: err.Error()}
	}
	return s.reconcileRows(ctx, rows, actor)
}

func (s *inventoryService) reconcileRows(ctx context.Context, rows []csvimport.Row, actor Actor) (*UploadResult, error) {
	if len(rows) == 0 {
		return nil, &ValidationError{Field: "file", Reason: "contains no data rows"}
	}

	drafts := make([]InventoryDraft, 0, len(rows))
	rowIndex := make([]int, 0, len(rows))
	var parseErrors []ReconcileEntry
	for i, row := range rows {
		draft, err := draftFromRow(row)
		if err != nil {
			parseErrors = append(parseErrors, ReconcileEntry{
				Index:    i,
				Row:      row.LineNumber,
				Category: model.InventoryCategory(row.Get("category")),
				Type:     row.Get("type"),
				Reason:   SkipParseError,
				Error:    err.Error(),
			})
			continue
		}
		drafts = append(drafts, draft)
		rowIndex = append(rowIndex, i)
	}

	result := newReconcileResult()
	if len(drafts) > 0 {
		var err error
		result, err = s.importer.Reconcile(ctx, drafts, actor)
		if err != nil {
			return nil, err
		}
		// Reconcile numbers entries by draft; report positions among the file rows.
		for _, list := range [][]ReconcileEntry{result.Created, result.Updated, result.Skipped} {
			for j := range list {
				list[j].Index = rowIndex[list[j].Index]
			}
		}
	}
	result.Skipped = append(result.Skipped, parseErrors...)
	return &UploadResult{ReconcileResult: result, TotalRows: len(rows)}, nil
}

func draftFromRow(row csvimport.Row) (InventoryDraft, error) {
	draft := InventoryDraft{
		Category:      model.InventoryCategory(row.Get("category")),
		Type:          row.Get("type"),
		Specification: row.Get("specification"),
		Supplier:      row.Get("supplier"),
		PartNumber:    row.Get("part_number"),
		Description:   row.Get("description"),
		Location:      row.Get("location"),
		Row:           row.LineNumber,
	}

	if v := row.Get("quantity"); v != "" {
		qty, err := parseWholeNumber(v)
		if err != nil {
			return draft, fmt.Errorf("quantity: %w", err)
		}
		draft.Quantity = qty
	}
	if v := row.Get("min_stock_level"); v != "" {
		level, err := parseWholeNumber(v)
		if err != nil {
			return draft, fmt.Errorf("min_stock_level: %w", err)
		}
		draft.MinStockLevel = &level
	}
	if v := row.Get("unit_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return draft, fmt.Errorf("unit_price: %q is not a number", v)
		}
		draft.UnitPrice = decimal.NewNullDecimal(price)
	}
	return draft, nil
}

// parseWholeNumber accepts "12" and spreadsheet-style "12.0".
func parseWholeNumber(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%q is not a whole number", v)
	}
	return int(d.IntPart()), nil
}

func (s *inventoryService) Dashboard(ctx context.Context) (*InventoryDashboard, error) {
	stats, err := s.inventoryRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.transactionRepo.Recent(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &InventoryDashboard{InventoryStats: stats, RecentTransactions: recent}, nil
}

func naturalKey(category model.InventoryCategory, typ, specification string) string {
	if specification == "" {
		return fmt.Sprintf("%s/%s", category, typ)
	}
	return fmt.Sprintf("%s/%s/%s", category, typ, specification)
}
