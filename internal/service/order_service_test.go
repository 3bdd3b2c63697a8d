package service

import (
	"context"
	"testing"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/pkg/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrderService(t *testing.T) (*OrderService, *gorm.DB) {
	db := newTestDB(t)
	holder := config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig())
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	referralSvc := NewReferralService(db, repository.NewReferralRepository(db), testLogger())
	pricingSvc := NewPricingService(holder, userRepo, testLogger())
	commissionSvc := NewCommissionService(holder, referralSvc, orderRepo,
		repository.NewCommissionRepository(db), repository.NewWalletRepository(db), testLogger())
	notifSvc := NewNotificationService(repository.NewNotificationRepository(db), nil, testLogger())
	svc := NewOrderService(db, orderRepo, repository.NewProductRepository(db),
		repository.NewPaymentRepository(db), userRepo, pricingSvc, commissionSvc,
		notifSvc, &gateway.StubProvider{}, "http://localhost/webhooks/payment", testLogger())
	return svc, db
}

func createProduct(t *testing.T, db *gorm.DB, sellerID uint, price, cost string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		SellerID: sellerID,
		Name:     "widget",
		Price:    dec(price),
		UnitCost: dec(cost),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestCheckoutAppliesTierDiscountAndReservesStock(t *testing.T) {
	svc, db := newOrderService(t)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	// 5000 lifetime purchases puts the buyer in the 25% band.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).
		Update("total_purchase", "5000").Error)
	product := createProduct(t, db, seller.ID, "100.00", "40.00", 5)

	result, err := svc.Checkout(context.Background(), buyer.ID,
		[]CheckoutItem{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)

	order := result.Order
	assert.True(t, order.Subtotal.Equal(dec("200.00")), "subtotal %s", order.Subtotal)
	assert.True(t, order.DiscountPercent.Equal(dec("25")))
	assert.True(t, order.DiscountAmount.Equal(dec("50.00")), "discount %s", order.DiscountAmount)
	assert.True(t, order.Total.Equal(dec("150.00")), "total %s", order.Total)
	assert.True(t, order.Profit.Equal(dec("70.00")), "profit %s", order.Profit)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)

	var payment models.Payment
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&payment).Error)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	assert.NotEmpty(t, payment.ProviderRef)
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	svc, db := newOrderService(t)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	product := createProduct(t, db, seller.ID, "100.00", "40.00", 1)

	_, err := svc.Checkout(context.Background(), buyer.ID,
		[]CheckoutItem{{ProductID: product.ID, Quantity: 2}})
	assert.ErrorIs(t, err, ErrOutOfStock)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)
}

func TestCheckoutRejectsMixedSellers(t *testing.T) {
	svc, db := newOrderService(t)
	s1 := createUser(t, db, "shop1", domain.RoleSeller)
	s2 := createUser(t, db, "shop2", domain.RoleSeller)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	p1 := createProduct(t, db, s1.ID, "10", "5", 10)
	p2 := createProduct(t, db, s2.ID, "10", "5", 10)

	_, err := svc.Checkout(context.Background(), buyer.ID, []CheckoutItem{
		{ProductID: p1.ID, Quantity: 1},
		{ProductID: p2.ID, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrMultipleSellers)
}

func TestCheckoutRejectsOwnProduct(t *testing.T) {
	svc, db := newOrderService(t)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	product := createProduct(t, db, seller.ID, "10", "5", 10)

	_, err := svc.Checkout(context.Background(), seller.ID,
		[]CheckoutItem{{ProductID: product.ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrOwnProduct)
}

func TestPaymentWebhookReplaysAreNoOps(t *testing.T) {
	svc, db := newOrderService(t)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	product := createProduct(t, db, seller.ID, "100.00", "40.00", 5)

	result, err := svc.Checkout(context.Background(), buyer.ID,
		[]CheckoutItem{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	var payment models.Payment
	require.NoError(t, db.Where("order_id = ?", result.Order.ID).First(&payment).Error)

	require.NoError(t, svc.HandlePaymentCompleted(payment.ProviderRef))
	require.NoError(t, svc.HandlePaymentCompleted(payment.ProviderRef))

	var order models.Order
	require.NoError(t, db.First(&order, result.Order.ID).Error)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	require.NotNil(t, order.PaidAt)
}

func TestDeliveryConfirmationSettlesOrderOnce(t *testing.T) {
	svc, db := newOrderService(t)
	referrer := createUser(t, db, "ref", domain.RoleCustomer)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).
		Update("referred_by_user_id", referrer.ID).Error)
	product := createProduct(t, db, seller.ID, "10000.00", "0.00", 5)

	result, err := svc.Checkout(context.Background(), buyer.ID,
		[]CheckoutItem{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	var payment models.Payment
	require.NoError(t, db.Where("order_id = ?", result.Order.ID).First(&payment).Error)
	require.NoError(t, svc.HandlePaymentCompleted(payment.ProviderRef))
	_, err = svc.MarkShipped(seller.ID, result.Order.ID)
	require.NoError(t, err)

	order, err := svc.ConfirmDelivery(buyer.ID, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)
	assert.True(t, order.CommissionsDistributed)

	// Level 1 on a 10000 profit order: 9700 distributable, 10% = 970.
	balance, err := repository.NewWalletRepository(db).Balance(referrer.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("970.00")), "referrer balance %s", balance)

	var reloadedBuyer models.User
	require.NoError(t, db.First(&reloadedBuyer, buyer.ID).Error)
	assert.True(t, reloadedBuyer.TotalPurchase.Equal(dec("10000.00")),
		"buyer total purchase %s", reloadedBuyer.TotalPurchase)

	// A repeated confirmation neither double-pays nor changes state.
	_, err = svc.ConfirmDelivery(buyer.ID, result.Order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var count int64
	require.NoError(t, db.Model(&models.Commission{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConfirmDeliveryRequiresBuyer(t *testing.T) {
	svc, db := newOrderService(t)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	stranger := createUser(t, db, "other", domain.RoleCustomer)
	product := createProduct(t, db, seller.ID, "10", "5", 5)

	result, err := svc.Checkout(context.Background(), buyer.ID,
		[]CheckoutItem{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.ConfirmDelivery(stranger.ID, result.Order.ID)
	assert.ErrorIs(t, err, ErrNotOrderOwner)
}

func TestPaymentFailureCancelsAndRestocks(t *testing.T) {
	svc, db := newOrderService(t)
	seller := createUser(t, db, "shop", domain.RoleSeller)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	product := createProduct(t, db, seller.ID, "100.00", "40.00", 5)

	result, err := svc.Checkout(context.Background(), buyer.ID,
		[]CheckoutItem{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)

	var payment models.Payment
	require.NoError(t, db.Where("order_id = ?", result.Order.ID).First(&payment).Error)
	require.NoError(t, svc.HandlePaymentFailed(payment.ProviderRef, "FAILED"))

	var order models.Order
	require.NoError(t, db.First(&order, result.Order.ID).Error)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)
}
