package address

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists address book entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the default address first, then the rest oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// FindForOwner loads an address only when it belongs to userID.
func (r *Repository) FindForOwner(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CountByUser returns how many addresses the user has saved.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

// Create inserts a new address.
func (r *Repository) Create(ctx context.Context, row *models.Address) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// ClearDefault unsets the default flag on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).
		Error
}

// MarkDefault flags one address as the user's default.
func (r *Repository) MarkDefault(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_default", true)
	return res.RowsAffected == 1, res.Error
}

// Delete removes an address owned by userID.
func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	return res.RowsAffected == 1, res.Error
}

// OldestForUser returns the earliest saved address of the user.
func (r *Repository) OldestForUser(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
