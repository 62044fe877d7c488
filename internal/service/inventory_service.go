package service

import (
	"context"
	"errors"
	"strings"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"
	"merchcrm/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateItemRequest struct {
	Name              string          `json:"name" binding:"required"`
	SKU               string          `json:"sku"`
	Quantity          int             `json:"quantity"`
	Unit              string          `json:"unit"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

// MovementRequest describes one stock movement to apply
type MovementRequest struct {
	ItemID                string `json:"item_id" binding:"required"`
	Type                  string `json:"type" binding:"required"`
	ChangeAmount          int    `json:"change_amount"`
	Reason                string `json:"reason"`
	StorageLocationID     *string `json:"storage_location_id"`
	FromStorageLocationID *string `json:"from_storage_location_id"`
}

type BulkMovementRequest struct {
	Movements []MovementRequest `json:"movements" binding:"required"`
}

// InventoryService implements stock items, movements and the history feed
type InventoryService interface {
	ListItems(ctx context.Context, page, limit int, search string) ([]model.InventoryItem, int64, error)
	CreateItem(ctx context.Context, actorID uuid.UUID, req CreateItemRequest) (*model.InventoryItem, error)
	ListLocations(ctx context.Context) ([]model.StorageLocation, error)
	RecordMovement(ctx context.Context, actorID uuid.UUID, req MovementRequest) (*model.InventoryTransaction, error)
	RecordMovements(ctx context.Context, actorID uuid.UUID, req BulkMovementRequest) ([]model.InventoryTransaction, error)
	History(ctx context.Context, page, limit int, filter repository.HistoryFilter) ([]model.InventoryTransaction, int64, error)
}

type inventoryService struct {
	inventory repository.InventoryRepository
	audits    repository.AuditRepository
	tx        repository.TransactionManager
	hub       *websocket.Hub
	errors    *errlog.Recorder
}

// NewInventoryService returns a new instance of InventoryService
func NewInventoryService(
	inventory repository.InventoryRepository,
	audits repository.AuditRepository,
	tx repository.TransactionManager,
	hub *websocket.Hub,
	rec *errlog.Recorder,
) InventoryService {
	return &inventoryService{inventory: inventory, audits: audits, tx: tx, hub: hub, errors: rec}
}

func (s *inventoryService) ListItems(ctx context.Context, page, limit int, search string) ([]model.InventoryItem, int64, error) {
	items, total, err := s.inventory.ListItems(ctx, page, limit, search)
	if err != nil {
		s.errors.Record(ctx, err, "/api/inventory", "ListItems", nil, nil)
		return nil, 0, errors.New("Не удалось загрузить склад")
	}
	return items, total, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, actorID uuid.UUID, req CreateItemRequest) (*model.InventoryItem, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, errors.New("Название должно содержать минимум 2 символа")
	}
	if req.Quantity < 0 {
		return nil, errors.New("Количество не может быть отрицательным")
	}

	item := &model.InventoryItem{
		Name:         name,
		SKU:          req.SKU,
		Quantity:     req.Quantity,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
	}
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	if req.LowStockThreshold > 0 {
		item.LowStockThreshold = req.LowStockThreshold
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inventory.CreateItem(txCtx, item); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionCreateItem, model.EntityInventory, item.ID.String(), map[string]interface{}{
			"name": item.Name,
			"sku":  item.SKU,
		}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New("Товар с таким артикулом уже существует")
		}
		s.errors.Record(ctx, err, "/api/inventory", "CreateItem", &actorID, nil)
		return nil, errors.New("Не удалось создать товар")
	}

	return item, nil
}

func (s *inventoryService) ListLocations(ctx context.Context) ([]model.StorageLocation, error) {
	locations, err := s.inventory.ListLocations(ctx)
	if err != nil {
		s.errors.Record(ctx, err, "/api/inventory/locations", "ListLocations", nil, nil)
		return nil, errors.New("Не удалось загрузить склады")
	}
	return locations, nil
}

// RecordMovement applies one stock movement and appends it to the history
func (s *inventoryService) RecordMovement(ctx context.Context, actorID uuid.UUID, req MovementRequest) (*model.InventoryTransaction, error) {
	var created *model.InventoryTransaction
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		tx, err := s.applyMovement(txCtx, actorID, req)
		if err != nil {
			return err
		}
		created = tx
		return nil
	})
	if err != nil {
		return nil, s.movementError(ctx, err, actorID)
	}

	s.hub.Publish("inventory.updated", map[string]interface{}{"item_id": created.ItemID})
	return created, nil
}

// RecordMovements applies the list atomically. If any movement is invalid,
// none of them are applied.
func (s *inventoryService) RecordMovements(ctx context.Context, actorID uuid.UUID, req BulkMovementRequest) ([]model.InventoryTransaction, error) {
	if len(req.Movements) == 0 {
		return nil, errors.New("Список движений пуст")
	}

	created := make([]model.InventoryTransaction, 0, len(req.Movements))
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, movement := range req.Movements {
			tx, err := s.applyMovement(txCtx, actorID, movement)
			if err != nil {
				return err
			}
			created = append(created, *tx)
		}
		return nil
	})
	if err != nil {
		return nil, s.movementError(ctx, err, actorID)
	}

	s.hub.Publish("inventory.updated", map[string]interface{}{"count": len(created)})
	return created, nil
}

func (s *inventoryService) History(ctx context.Context, page, limit int, filter repository.HistoryFilter) ([]model.InventoryTransaction, int64, error) {
	history, total, err := s.inventory.ListHistory(ctx, page, limit, filter)
	if err != nil {
		s.errors.Record(ctx, err, "/api/inventory/history", "History", nil, nil)
		return nil, 0, errors.New("Не удалось загрузить историю склада")
	}
	return history, total, nil
}

// domain errors worth telling apart from infrastructure failures
var (
	errUnknownMovement = errors.New("Неизвестный тип движения")
	errItemNotFound    = errors.New("Товар не найден")
	errNegativeStock   = errors.New("Недостаточно товара на складе")
	errZeroChange      = errors.New("Количество движения не может быть нулевым")
)

// applyMovement validates one movement, adjusts stock and appends the history
// entry. Must run inside a transaction.
func (s *inventoryService) applyMovement(ctx context.Context, actorID uuid.UUID, req MovementRequest) (*model.InventoryTransaction, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, errItemNotFound
	}

	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errItemNotFound
		}
		return nil, err
	}

	delta := req.ChangeAmount
	switch req.Type {
	case model.TxTypeIn, model.TxTypeRestore:
		if delta <= 0 {
			return nil, errZeroChange
		}
	case model.TxTypeOut:
		if delta == 0 {
			return nil, errZeroChange
		}
		if delta > 0 {
			delta = -delta
		}
	case model.TxTypeTransfer, model.TxTypeArchive:
		delta = 0
	default:
		return nil, errUnknownMovement
	}

	if item.Quantity+delta < 0 {
		return nil, errNegativeStock
	}

	if delta != 0 {
		if err := s.inventory.AdjustQuantity(ctx, itemID, delta); err != nil {
			return nil, err
		}
	}

	tx := &model.InventoryTransaction{
		ItemID:       itemID,
		ChangeAmount: delta,
		Type:         req.Type,
		Reason:       req.Reason,
		CostPrice:    item.CostPrice,
		CreatedBy:    &actorID,
	}
	if req.StorageLocationID != nil && *req.StorageLocationID != "" {
		id, err := uuid.Parse(*req.StorageLocationID)
		if err != nil {
			return nil, errors.New("Некорректный склад")
		}
		tx.StorageLocationID = &id
	}
	if req.FromStorageLocationID != nil && *req.FromStorageLocationID != "" {
		id, err := uuid.Parse(*req.FromStorageLocationID)
		if err != nil {
			return nil, errors.New("Некорректный склад")
		}
		tx.FromStorageLocationID = &id
	}

	if err := s.inventory.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	if err := s.audits.Log(ctx, newAuditLog(&actorID, model.ActionInventoryChange, model.EntityInventory, itemID.String(), map[string]interface{}{
		"item":   item.Name,
		"type":   req.Type,
		"change": delta,
	})); err != nil {
		return nil, err
	}

	return tx, nil
}

// movementError maps known validation failures through unchanged and hides
// everything else behind a generic message
func (s *inventoryService) movementError(ctx context.Context, err error, actorID uuid.UUID) error {
	switch {
	case errors.Is(err, errUnknownMovement),
		errors.Is(err, errItemNotFound),
		errors.Is(err, errNegativeStock),
		errors.Is(err, errZeroChange):
		return err
	}
	if strings.HasPrefix(err.Error(), "Некорректный") {
		return err
	}
	s.errors.Record(ctx, err, "/api/inventory/transactions", "RecordMovement", &actorID, nil)
	return errors.New("Не удалось сохранить движение")
}
