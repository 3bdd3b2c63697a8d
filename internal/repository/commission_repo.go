package repository

import (
	"bazaar/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// CreateBatch inserts the commissions for one settlement. Must run inside the
// settlement transaction.
func (r *CommissionRepository) CreateBatch(tx *gorm.DB, commissions []models.Commission) error {
	if len(commissions) == 0 {
		return nil
	}
	return tx.Create(&commissions).Error
}

func (r *CommissionRepository) GetByID(id uint) (*models.Commission, error) {
	var c models.Commission
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommissionRepository) ListByOrderID(orderID uint) ([]models.Commission, error) {
	var list []models.Commission
	err := r.db.Where("order_id = ?", orderID).Order("level ASC").Find(&list).Error
	return list, err
}

func (r *CommissionRepository) ListByBeneficiaryID(beneficiaryID uint, limit, offset int) ([]models.Commission, error) {
	var list []models.Commission
	err := r.db.Where("beneficiary_id = ?", beneficiaryID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// List returns commissions for admin reporting, newest first.
func (r *CommissionRepository) List(limit, offset int) ([]models.Commission, int64, error) {
	var total int64
	if err := r.db.Model(&models.Commission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Commission
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// TotalForBeneficiary sums all commission amounts earned by a user.
func (r *CommissionRepository) TotalForBeneficiary(beneficiaryID uint) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.Model(&models.Commission{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("beneficiary_id = ?", beneficiaryID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
