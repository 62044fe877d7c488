package repository

import (
	"context"
	"time"

	"merchcrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryFilter narrows down inventory transaction history queries
type HistoryFilter struct {
	ItemID     *uuid.UUID
	Type       string
	LocationID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// InventoryRepository defines data access for items, locations and the
// movement history
type InventoryRepository interface {
	CreateItem(ctx context.Context, item *model.InventoryItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	ListItems(ctx context.Context, page, limit int, search string) ([]model.InventoryItem, int64, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error

	ListLocations(ctx context.Context) ([]model.StorageLocation, error)

	CreateTransaction(ctx context.Context, tx *model.InventoryTransaction) error
	ListHistory(ctx context.Context, page, limit int, filter HistoryFilter) ([]model.InventoryTransaction, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository returns a new instance of InventoryRepository
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) CreateItem(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *inventoryRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) ListItems(ctx context.Context, page, limit int, search string) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	query := GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("is_archived = ?", false)
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// AdjustQuantity applies a stock delta atomically at the statement level.
// Callers run it inside the movement transaction together with the history row.
func (r *inventoryRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *inventoryRepository) ListLocations(ctx context.Context) ([]model.StorageLocation, error) {
	var locations []model.StorageLocation
	err := GetDB(ctx, r.db).Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").Find(&locations).Error
	return locations, err
}

func (r *inventoryRepository) CreateTransaction(ctx context.Context, tx *model.InventoryTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *inventoryRepository) ListHistory(ctx context.Context, page, limit int, filter HistoryFilter) ([]model.InventoryTransaction, int64, error) {
	var txs []model.InventoryTransaction
	var total int64

	query := GetDB(ctx, r.db).Model(&model.InventoryTransaction{})
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.LocationID != nil {
		query = query.Where("storage_location_id = ?", *filter.LocationID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Item").Preload("Creator").Preload("StorageLocation").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
