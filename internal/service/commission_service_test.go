package service

import (
	"testing"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommissionService(t *testing.T, cfg config.CommissionConfig) (*CommissionService, *gorm.DB) {
	db := newTestDB(t)
	holder := config.NewStaticCommissionConfigHolder(cfg)
	referralSvc := NewReferralService(db, repository.NewReferralRepository(db), testLogger())
	svc := NewCommissionService(
		holder,
		referralSvc,
		repository.NewOrderRepository(db),
		repository.NewCommissionRepository(db),
		repository.NewWalletRepository(db),
		testLogger(),
	)
	return svc, db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateDeductsFeeAndAppliesLevelRates(t *testing.T) {
	svc, _ := newCommissionService(t, config.DefaultCommissionConfig())

	shares, err := svc.Calculate(dec("10000"), []uint{11, 22, 33})
	require.NoError(t, err)
	require.Len(t, shares, 3)

	// 3% fee leaves 9700 distributable; 10% / 5% / 2% of that.
	assert.True(t, shares[0].Amount.Equal(dec("970.00")), "level 1 got %s", shares[0].Amount)
	assert.True(t, shares[1].Amount.Equal(dec("485.00")), "level 2 got %s", shares[1].Amount)
	assert.True(t, shares[2].Amount.Equal(dec("194.00")), "level 3 got %s", shares[2].Amount)
	assert.Equal(t, uint(11), shares[0].BeneficiaryID)
	assert.Equal(t, 1, shares[0].Level)
	assert.Equal(t, 3, shares[2].Level)
}

func TestCalculateIgnoresAncestorsBeyondConfiguredRates(t *testing.T) {
	svc, _ := newCommissionService(t, config.DefaultCommissionConfig())

	shares, err := svc.Calculate(dec("1000"), []uint{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Len(t, shares, 3)
}

func TestCalculateSkipsZeroRateLevels(t *testing.T) {
	cfg := config.DefaultCommissionConfig()
	cfg.LevelRates = []decimal.Decimal{dec("10"), dec("0"), dec("2")}
	svc, _ := newCommissionService(t, cfg)

	shares, err := svc.Calculate(dec("1000"), []uint{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, 1, shares[0].Level)
	assert.Equal(t, 3, shares[1].Level)
	assert.Equal(t, uint(3), shares[1].BeneficiaryID)
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	cfg := config.DefaultCommissionConfig()
	cfg.GatewayFeePercent = decimal.Zero
	cfg.LevelRates = []decimal.Decimal{dec("12.5")}
	svc, _ := newCommissionService(t, cfg)

	// 1 * 12.5% = 0.125, which rounds up to 0.13.
	shares, err := svc.Calculate(dec("1"), []uint{1})
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.True(t, shares[0].Amount.Equal(dec("0.13")), "got %s", shares[0].Amount)
}

func TestCalculateRejectsNegativeProfit(t *testing.T) {
	svc, _ := newCommissionService(t, config.DefaultCommissionConfig())

	_, err := svc.Calculate(dec("-0.01"), []uint{1})
	assert.ErrorIs(t, err, ErrInvalidProfit)
}

func TestCalculateSharesNeverExceedDistributable(t *testing.T) {
	svc, _ := newCommissionService(t, config.DefaultCommissionConfig())

	profit := dec("1234.56")
	shares, err := svc.Calculate(profit, []uint{1, 2, 3})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	distributable := profit.Mul(dec("0.97"))
	assert.True(t, sum.LessThanOrEqual(distributable),
		"shares %s exceed distributable %s", sum, distributable)
}

func seedSettledOrder(t *testing.T, db *gorm.DB, buyerID, sellerID uint, profit decimal.Decimal) *models.Order {
	t.Helper()
	order := &models.Order{
		Ref:      "ORD-TEST-1",
		UserID:   buyerID,
		SellerID: sellerID,
		Subtotal: profit,
		Total:    profit,
		Profit:   profit,
		Status:   domain.OrderStatusShipped,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestDistributeTxWritesCommissionsAndLedger(t *testing.T) {
	svc, db := newCommissionService(t, config.DefaultCommissionConfig())
	a := createUser(t, db, "alice", domain.RoleCustomer)
	b := createUser(t, db, "bob", domain.RoleCustomer)
	buyer := createUser(t, db, "carol", domain.RoleCustomer)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", b.ID).Update("referred_by_user_id", a.ID).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referred_by_user_id", b.ID).Error)
	order := seedSettledOrder(t, db, buyer.ID, seller.ID, dec("10000"))

	var shares []CommissionShare
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		shares, err = svc.DistributeTx(tx, order)
		return err
	})
	require.NoError(t, err)
	require.Len(t, shares, 2)

	var commissions []models.Commission
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("level ASC").Find(&commissions).Error)
	require.Len(t, commissions, 2)
	assert.Equal(t, b.ID, commissions[0].BeneficiaryID)
	assert.True(t, commissions[0].Amount.Equal(dec("970.00")))
	assert.Equal(t, a.ID, commissions[1].BeneficiaryID)
	assert.True(t, commissions[1].Amount.Equal(dec("485.00")))

	balance, err := repository.NewWalletRepository(db).Balance(b.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("970.00")), "wallet balance %s", balance)
}

func TestDistributeTxRunsExactlyOnce(t *testing.T) {
	svc, db := newCommissionService(t, config.DefaultCommissionConfig())
	a := createUser(t, db, "alice", domain.RoleCustomer)
	buyer := createUser(t, db, "bob", domain.RoleCustomer)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referred_by_user_id", a.ID).Error)
	order := seedSettledOrder(t, db, buyer.ID, seller.ID, dec("100"))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DistributeTx(tx, order)
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DistributeTx(tx, order)
		return err
	})
	assert.ErrorIs(t, err, ErrAlreadyDistributed)

	var count int64
	require.NoError(t, db.Model(&models.Commission{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDistributeTxNegativeProfitSetsFlagWithoutCommissions(t *testing.T) {
	svc, db := newCommissionService(t, config.DefaultCommissionConfig())
	a := createUser(t, db, "alice", domain.RoleCustomer)
	buyer := createUser(t, db, "bob", domain.RoleCustomer)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referred_by_user_id", a.ID).Error)
	order := seedSettledOrder(t, db, buyer.ID, seller.ID, dec("-50"))

	var shares []CommissionShare
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		shares, err = svc.DistributeTx(tx, order)
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, shares)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.True(t, reloaded.CommissionsDistributed)

	var count int64
	require.NoError(t, db.Model(&models.Commission{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestVoidAppendsCompensatingEntry(t *testing.T) {
	svc, db := newCommissionService(t, config.DefaultCommissionConfig())
	a := createUser(t, db, "alice", domain.RoleCustomer)
	buyer := createUser(t, db, "bob", domain.RoleCustomer)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referred_by_user_id", a.ID).Error)
	order := seedSettledOrder(t, db, buyer.ID, seller.ID, dec("100"))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DistributeTx(tx, order)
		return err
	}))

	var commission models.Commission
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&commission).Error)

	entry, err := svc.Void(commission.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerReasonReversal, entry.Reason)
	assert.True(t, entry.Amount.Equal(commission.Amount.Neg()))

	balance, err := repository.NewWalletRepository(db).Balance(a.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "balance after void %s", balance)

	// The commission row itself is untouched.
	var still models.Commission
	require.NoError(t, db.First(&still, commission.ID).Error)
	assert.True(t, still.Amount.Equal(commission.Amount))
}
