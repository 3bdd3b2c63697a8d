package repository

import (
	"bazaar/internal/models"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) GetByID(id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(p *models.Product) error {
	return r.db.Save(p).Error
}

func (r *ProductRepository) Delete(id, sellerID uint) error {
	return r.db.Where("id = ? AND seller_id = ?", id, sellerID).Delete(&models.Product{}).Error
}

// ListActive returns active products for the storefront, optionally filtered
// by a search term.
func (r *ProductRepository) ListActive(search string, limit, offset int) ([]models.Product, int64, error) {
	q := r.db.Model(&models.Product{}).Where("is_active = ? AND stock > 0", true)
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Product
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *ProductRepository) ListBySellerID(sellerID uint, limit, offset int) ([]models.Product, error) {
	var list []models.Product
	err := r.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// DecrementStock reserves stock for an order line; fails when not enough left.
func (r *ProductRepository) DecrementStock(tx *gorm.DB, productID uint, qty int) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
