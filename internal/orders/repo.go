package orders

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).
		Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", orderID)
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *repository) FindByPaymentOrderID(ctx context.Context, paymentOrderID string) (*models.Order, error) {
	return r.findOne(ctx, "payment_order_id = ?", paymentOrderID)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where(query, arg).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateFields applies a partial update and reports whether a row matched.
// Nil values in updates clear the column.
func (r *repository) UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.PageParams) ([]models.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.page(ctx, base, params)
}

func (r *repository) ListAdmin(ctx context.Context, filters AdminOrderFilters, params pagination.PageParams) ([]models.Order, int64, error) {
	base := applyAdminFilters(r.db.WithContext(ctx).Model(&models.Order{}), filters, "")
	return r.page(ctx, base, params)
}

func (r *repository) page(ctx context.Context, base *gorm.DB, params pagination.PageParams) ([]models.Order, int64, error) {
	params = params.Normalize()

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	err := base.Session(&gorm.Session{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type exportRecord struct {
	OrderNumber     string
	CreatedAt       time.Time
	CustomerName    string
	CustomerEmail   string
	ShippingAddress types.AddressSnapshot
	ProductName     *string
	ProductSKU      *string
	Quantity        *int
	UnitPrice       *int
	ItemSubtotal    *int
	Subtotal        int
	ShippingCost    int
	Total           int
	OrderStatus     string
	PaymentStatus   string
	Carrier         *string
	TrackingNumber  *string
	CustomerNotes   *string
	AdminNotes      *string
}

// ExportRows returns one row per order item; orders without items still get
// a single row with empty item columns.
func (r *repository) ExportRows(ctx context.Context, filters AdminOrderFilters) ([]ExportRow, error) {
	query := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.order_number, o.created_at, o.customer_name, o.customer_email, o.shipping_address,
			oi.product_name, oi.product_sku, oi.quantity, oi.unit_price, oi.subtotal AS item_subtotal,
			o.subtotal, o.shipping_cost, o.total, o.order_status, o.payment_status,
			o.carrier, o.tracking_number, o.customer_notes, o.admin_notes`).
		Joins("LEFT JOIN order_items AS oi ON oi.order_id = o.id")
	query = applyAdminFilters(query, filters, "o.")

	var records []exportRecord
	if err := query.
		Order("o.created_at DESC").
		Order("o.id DESC").
		Order("oi.created_at ASC").
		Scan(&records).Error; err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ExportRow{
			OrderNumber:     rec.OrderNumber,
			CreatedAt:       rec.CreatedAt,
			CustomerName:    rec.CustomerName,
			CustomerEmail:   rec.CustomerEmail,
			ShippingAddress: rec.ShippingAddress,
			ProductName:     deref(rec.ProductName),
			ProductSKU:      deref(rec.ProductSKU),
			Quantity:        derefInt(rec.Quantity),
			UnitPrice:       derefInt(rec.UnitPrice),
			ItemSubtotal:    derefInt(rec.ItemSubtotal),
			Subtotal:        rec.Subtotal,
			ShippingCost:    rec.ShippingCost,
			Total:           rec.Total,
			OrderStatus:     rec.OrderStatus,
			PaymentStatus:   rec.PaymentStatus,
			Carrier:         deref(rec.Carrier),
			TrackingNumber:  deref(rec.TrackingNumber),
			CustomerNotes:   deref(rec.CustomerNotes),
			AdminNotes:      deref(rec.AdminNotes),
		})
	}
	return rows, nil
}

func applyAdminFilters(query *gorm.DB, filters AdminOrderFilters, prefix string) *gorm.DB {
	if search := strings.ToLower(strings.TrimSpace(filters.Search)); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where(
			"(LOWER("+prefix+"order_number) LIKE ? ESCAPE '\\' OR LOWER("+prefix+"customer_name) LIKE ? ESCAPE '\\')",
			pattern, pattern,
		)
	}
	if filters.OrderStatus != nil {
		query = query.Where(prefix+"order_status = ?", *filters.OrderStatus)
	}
	if filters.PaymentStatus != nil {
		query = query.Where(prefix+"payment_status = ?", *filters.PaymentStatus)
	}
	return query
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefInt(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
