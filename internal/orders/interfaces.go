package orders

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByPaymentOrderID(ctx context.Context, paymentOrderID string) (*models.Order, error)
	UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.PageParams) ([]models.Order, int64, error)
	ListAdmin(ctx context.Context, filters AdminOrderFilters, params pagination.PageParams) ([]models.Order, int64, error)
	ExportRows(ctx context.Context, filters AdminOrderFilters) ([]ExportRow, error)
}
