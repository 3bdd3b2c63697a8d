package repository

import (
	"bazaar/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByRef(ref string) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").Where("ref = ?", ref).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUserID(userID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *OrderRepository) ListBySellerID(sellerID uint, status string, limit, offset int) ([]models.Order, error) {
	q := r.db.Where("seller_id = ?", sellerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Order
	err := q.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// TransitionStatus moves an order from one status to another with a
// conditional update; returns false if the order was not in `from`.
func (r *OrderRepository) TransitionStatus(tx *gorm.DB, orderID uint, from, to string, set map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range set {
		updates[k] = v
	}
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkCommissionsDistributed is the settlement guard: the conditional update
// plus RowsAffected check gives compare-and-set semantics, so concurrent
// settlement attempts for the same order are mutually exclusive.
func (r *OrderRepository) MarkCommissionsDistributed(tx *gorm.DB, orderID uint) (bool, error) {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND commissions_distributed = ?", orderID, false).
		Update("commissions_distributed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
