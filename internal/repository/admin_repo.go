package repository

import (
	"bazaar/internal/domain"
	"bazaar/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers         int64           `json:"total_users"`
	TotalSellers       int64           `json:"total_sellers"`
	TotalCustomers     int64           `json:"total_customers"`
	TotalProducts      int64           `json:"total_products"`
	TotalOrders        int64           `json:"total_orders"`
	SettledOrders      int64           `json:"settled_orders"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalCommissions   decimal.Decimal `json:"total_commissions"`
	PendingWithdrawals int64           `json:"pending_withdrawals"`
	TotalReferrals     int64           `json:"total_referrals"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	r.db.Model(&models.User{}).Count(&s.TotalUsers)
	r.db.Model(&models.User{}).Where("role = ?", domain.RoleSeller).Count(&s.TotalSellers)
	r.db.Model(&models.User{}).Where("role = ?", domain.RoleCustomer).Count(&s.TotalCustomers)
	r.db.Model(&models.Product{}).Count(&s.TotalProducts)
	r.db.Model(&models.Order{}).Count(&s.TotalOrders)
	r.db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusDelivered).Count(&s.SettledOrders)

	var rev struct{ Total decimal.Decimal }
	r.db.Model(&models.Payment{}).Select("COALESCE(SUM(amount), 0) as total").
		Where("status = ?", domain.PaymentStatusCompleted).Scan(&rev)
	s.TotalRevenue = rev.Total

	var comm struct{ Total decimal.Decimal }
	r.db.Model(&models.Commission{}).Select("COALESCE(SUM(amount), 0) as total").Scan(&comm)
	s.TotalCommissions = comm.Total

	r.db.Model(&models.Withdrawal{}).Where("status = ?", domain.WithdrawalStatusPending).Count(&s.PendingWithdrawals)
	r.db.Model(&models.User{}).Where("referred_by_user_id IS NOT NULL").Count(&s.TotalReferrals)
	return &s, nil
}

func (r *AdminRepository) ListUsers(search, role string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("username LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

func (r *AdminRepository) GetUserByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AdminRepository) UpdateUser(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}
