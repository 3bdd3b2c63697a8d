package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/pkg/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart          = errors.New("cart has no items")
	ErrProductUnavailable = errors.New("product is not available")
	ErrOutOfStock         = errors.New("not enough stock for product")
	ErrMultipleSellers    = errors.New("all items in an order must belong to one seller")
	ErrOwnProduct         = errors.New("cannot buy your own product")
	ErrInvalidTransition  = errors.New("order is not in a state that allows this action")
	ErrNotOrderOwner      = errors.New("order does not belong to this user")
	ErrNotOrderSeller     = errors.New("order does not belong to this seller")
)

type CheckoutItem struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// CheckoutResult is what the buyer gets back: the pending order plus the
// gateway charge to complete.
type CheckoutResult struct {
	Order       *models.Order `json:"order"`
	PaymentID   uint          `json:"payment_id"`
	CheckoutURL string        `json:"checkout_url"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

type OrderService struct {
	db              *gorm.DB
	orderRepo       *repository.OrderRepository
	productRepo     *repository.ProductRepository
	paymentRepo     *repository.PaymentRepository
	userRepo        *repository.UserRepository
	pricingSvc      *PricingService
	commissionSvc   *CommissionService
	notificationSvc *NotificationService
	provider        gateway.Provider
	callbackURL     string
	log             *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	paymentRepo *repository.PaymentRepository,
	userRepo *repository.UserRepository,
	pricingSvc *PricingService,
	commissionSvc *CommissionService,
	notificationSvc *NotificationService,
	provider gateway.Provider,
	callbackURL string,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		db:              db,
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		paymentRepo:     paymentRepo,
		userRepo:        userRepo,
		pricingSvc:      pricingSvc,
		commissionSvc:   commissionSvc,
		notificationSvc: notificationSvc,
		provider:        provider,
		callbackURL:     callbackURL,
		log:             log,
	}
}

// Checkout prices the cart with the buyer's current discount tier, reserves
// stock, creates the PENDING order and payment, and opens a gateway charge.
// One order maps to one seller; mixed carts are rejected up front.
func (s *OrderService) Checkout(ctx context.Context, userID uint, items []CheckoutItem) (*CheckoutResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	buyer, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	var (
		sellerID   uint
		subtotal   = decimal.Zero
		costTotal  = decimal.Zero
		orderItems = make([]models.OrderItem, 0, len(items))
	)
	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductUnavailable
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, ErrProductUnavailable
		}
		if product.SellerID == userID {
			return nil, ErrOwnProduct
		}
		if sellerID == 0 {
			sellerID = product.SellerID
		} else if sellerID != product.SellerID {
			return nil, ErrMultipleSellers
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(product.Price.Mul(qty))
		costTotal = costTotal.Add(product.UnitCost.Mul(qty))
		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			UnitCost:  product.UnitCost,
		})
	}

	discountPercent, err := s.pricingSvc.DiscountPercentFor(userID)
	if err != nil {
		return nil, err
	}
	discountAmount := subtotal.Mul(discountPercent).Div(oneHundred).Round(2)
	total := subtotal.Sub(discountAmount)
	// Profit can go negative when the discount eats the margin; the order is
	// still accepted, commissions just won't be paid on it.
	profit := total.Sub(costTotal)

	order := &models.Order{
		Ref:             newOrderRef(),
		UserID:          userID,
		SellerID:        sellerID,
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountAmount,
		Total:           total,
		CostTotal:       costTotal,
		Profit:          profit,
		Status:          domain.OrderStatusPending,
		Items:           orderItems,
	}
	payment := &models.Payment{
		UserID:         userID,
		Amount:         total,
		Currency:       "INR",
		Provider:       "gateway",
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: uuid.NewString(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			ok, err := s.productRepo.DecrementStock(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrOutOfStock
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		payment.OrderID = order.ID
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, err
	}

	charge, err := s.provider.CreateCharge(ctx, gateway.ChargeRequest{
		OrderRef:      order.Ref,
		Amount:        total,
		Currency:      payment.Currency,
		Description:   fmt.Sprintf("bazaar order %s", order.Ref),
		CustomerEmail: buyer.Email,
		CallbackURL:   s.callbackURL,
		ExpiresIn:     30 * time.Minute,
	})
	if err != nil {
		// The charge failed before the buyer saw a payment page; release the
		// reservation so stock is not stranded on a dead order.
		s.log.Error("gateway charge failed, cancelling order",
			zap.String("order_ref", order.Ref), zap.Error(err))
		if cancelErr := s.cancelAndRestock(order.ID); cancelErr != nil {
			s.log.Error("failed to cancel order after charge failure",
				zap.Uint("order_id", order.ID), zap.Error(cancelErr))
		}
		return nil, err
	}

	payment.ProviderRef = charge.Reference
	payment.ExpiresAt = &charge.ExpiresAt
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}

	s.log.Info("checkout created",
		zap.String("order_ref", order.Ref),
		zap.Uint("buyer_id", userID),
		zap.Uint("seller_id", sellerID),
		zap.String("total", total.StringFixed(2)),
		zap.String("discount_percent", discountPercent.String()),
	)
	return &CheckoutResult{
		Order:       order,
		PaymentID:   payment.ID,
		CheckoutURL: charge.CheckoutURL,
		ExpiresAt:   charge.ExpiresAt,
	}, nil
}

// HandlePaymentCompleted processes a gateway success webhook. Replays are
// no-ops: the payment status check and the conditional order transition both
// tolerate the same reference arriving twice.
func (s *OrderService) HandlePaymentCompleted(providerRef string) error {
	payment, err := s.paymentRepo.GetByProviderRef(providerRef)
	if err != nil {
		return err
	}
	if payment.Status == domain.PaymentStatusCompleted {
		return nil
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, domain.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":       domain.PaymentStatusCompleted,
				"completed_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Concurrent webhook delivery won; nothing left to do.
			return nil
		}
		_, err := s.orderRepo.TransitionStatus(tx, payment.OrderID,
			domain.OrderStatusPending, domain.OrderStatusPaid,
			map[string]interface{}{"paid_at": &now})
		return err
	})
	if err != nil {
		return err
	}

	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return err
	}
	s.notificationSvc.Notify(order.SellerID, NotifyOrderPaid,
		"Order paid", fmt.Sprintf("Order %s has been paid. Ship it when ready.", order.Ref),
		map[string]interface{}{"order_id": order.ID})
	s.log.Info("payment completed", zap.String("order_ref", order.Ref), zap.String("provider_ref", providerRef))
	return nil
}

// HandlePaymentFailed cancels the order and restores stock for a failed or
// expired charge.
func (s *OrderService) HandlePaymentFailed(providerRef, status string) error {
	payment, err := s.paymentRepo.GetByProviderRef(providerRef)
	if err != nil {
		return err
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil
	}
	payment.Status = domain.PaymentStatusFailed
	if strings.EqualFold(status, "expired") {
		payment.Status = domain.PaymentStatusExpired
	}
	if err := s.paymentRepo.Update(payment); err != nil {
		return err
	}
	return s.cancelAndRestock(payment.OrderID)
}

// MarkShipped is the seller acknowledging fulfilment.
func (s *OrderService) MarkShipped(sellerID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, ErrNotOrderSeller
	}
	ok, err := s.orderRepo.TransitionStatus(s.db, orderID, domain.OrderStatusPaid, domain.OrderStatusShipped, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.notificationSvc.Notify(order.UserID, NotifyOrderShipped,
		"Order shipped", fmt.Sprintf("Order %s is on its way.", order.Ref),
		map[string]interface{}{"order_id": order.ID})
	return s.orderRepo.GetByID(orderID)
}

// ConfirmDelivery is the settlement point: the buyer confirming receipt moves
// the order to DELIVERED, grows their lifetime purchase total, and pays out
// referral commissions, all in one transaction, guarded so it runs once.
func (s *OrderService) ConfirmDelivery(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}

	now := time.Now()
	var shares []CommissionShare
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.TransitionStatus(tx, orderID,
			domain.OrderStatusShipped, domain.OrderStatusDelivered,
			map[string]interface{}{"delivered_at": &now})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		if err := s.userRepo.AddPurchaseTotal(tx, order.UserID, order.Total); err != nil {
			return err
		}
		shares, err = s.commissionSvc.DistributeTx(tx, order)
		if errors.Is(err, ErrAlreadyDistributed) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, share := range shares {
		s.notificationSvc.Notify(share.BeneficiaryID, NotifyCommissionPaid,
			"Commission earned",
			fmt.Sprintf("You earned %s INR from a level %d referral purchase.", share.Amount.StringFixed(2), share.Level),
			map[string]interface{}{"order_id": order.ID, "level": share.Level})
	}
	s.log.Info("order delivered",
		zap.String("order_ref", order.Ref),
		zap.Int("commission_levels", len(shares)),
	)
	return s.orderRepo.GetByID(orderID)
}

func (s *OrderService) Get(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && order.SellerID != userID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

func (s *OrderService) ListForBuyer(userID uint, limit, offset int) ([]models.Order, error) {
	return s.orderRepo.ListByUserID(userID, limit, offset)
}

func (s *OrderService) ListForSeller(sellerID uint, status string, limit, offset int) ([]models.Order, error) {
	return s.orderRepo.ListBySellerID(sellerID, status, limit, offset)
}

func (s *OrderService) cancelAndRestock(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.TransitionStatus(tx, orderID,
			domain.OrderStatusPending, domain.OrderStatusCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for _, item := range order.Items {
			err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error
			if err != nil {
				return err
			}
		}
		if payment, err := s.paymentRepo.GetByOrderID(orderID); err == nil &&
			payment.Status == domain.PaymentStatusPending {
			err := tx.Model(&models.Payment{}).
				Where("id = ? AND status = ?", payment.ID, domain.PaymentStatusPending).
				Update("status", domain.PaymentStatusFailed).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func newOrderRef() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:18])
}
