package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderStatusNew        = "new"
	OrderStatusProduction = "production"
	OrderStatusDone       = "done"
	OrderStatusShipped    = "shipped"
	OrderStatusCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentCash    = "cash"
	PaymentBank    = "bank"
	PaymentOnline  = "online"
	PaymentAccount = "account"
)

// Expense categories
var ExpenseCategories = []string{"rent", "salary", "purchase", "tax", "other"}

// Order is a sales order. Only the fields the finance dashboards aggregate over
// live here; full order management is out of scope for this service.
type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber    string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`
	Status         string          `gorm:"type:varchar(20);default:'new';not null;index" json:"status"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_amount"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	IsArchived     bool            `gorm:"default:false;index" json:"is_archived"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Payment is money received against an order
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order     *Order          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order,omitempty"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null" json:"method"`
	IsAdvance bool            `gorm:"default:false" json:"is_advance"`
	Comment   string          `gorm:"type:text" json:"comment"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// Expense is a business cost entry
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Category    string          `gorm:"type:varchar(20);not null;index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	CreatedBy   *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
