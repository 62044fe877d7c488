package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inventory transaction types
const (
	TxTypeIn       = "in"
	TxTypeOut      = "out"
	TxTypeTransfer = "transfer"
	TxTypeArchive  = "archive"
	TxTypeRestore  = "restore"
)

// Storage location types
const (
	LocationWarehouse  = "warehouse"
	LocationProduction = "production"
	LocationOffice     = "office"
)

// StorageLocation is a physical place stock can sit in
type StorageLocation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   string    `gorm:"type:varchar(255)" json:"address"`
	Type      string    `gorm:"type:varchar(20);default:'warehouse';not null" json:"type"`
	IsDefault bool      `gorm:"default:false" json:"is_default"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	IsSystem  bool      `gorm:"default:false" json:"is_system"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// InventoryItem is a stocked product or material
type InventoryItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU               string          `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	Quantity          int             `gorm:"default:0;not null" json:"quantity"`
	Unit              string          `gorm:"type:varchar(20);default:'pcs';not null" json:"unit"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(10,2)" json:"cost_price"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(10,2)" json:"selling_price"`
	LowStockThreshold int             `gorm:"default:10;not null" json:"low_stock_threshold"`
	IsArchived        bool            `gorm:"default:false;index" json:"is_archived"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InventoryTransaction is one append-only entry in the warehouse movement history
type InventoryTransaction struct {
	ID                    uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID                uuid.UUID        `gorm:"type:uuid;not null;index" json:"item_id"`
	Item                  *InventoryItem   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	ChangeAmount          int              `gorm:"not null;default:0" json:"change_amount"`
	Type                  string           `gorm:"type:varchar(20);not null;index" json:"type"`
	Reason                string           `gorm:"type:text" json:"reason"`
	StorageLocationID     *uuid.UUID       `gorm:"type:uuid;index" json:"storage_location_id"`
	StorageLocation       *StorageLocation `gorm:"foreignKey:StorageLocationID" json:"storage_location,omitempty"`
	FromStorageLocationID *uuid.UUID       `gorm:"type:uuid" json:"from_storage_location_id"`
	CostPrice             decimal.Decimal  `gorm:"type:decimal(10,2)" json:"cost_price"` // Snapshot at movement time, feeds COGS
	CreatedBy             *uuid.UUID       `gorm:"type:uuid;index" json:"created_by"`
	Creator               *User            `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt             time.Time        `gorm:"index" json:"created_at"`
}
