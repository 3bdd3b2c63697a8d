package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleSeller   = "SELLER"
	RoleAdmin    = "ADMIN"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusExpired   = "EXPIRED"
)

const (
	WithdrawalStatusPending   = "PENDING"
	WithdrawalStatusCompleted = "COMPLETED"
	WithdrawalStatusFailed    = "FAILED"
)

// Wallet ledger entry reasons.
const (
	LedgerReasonCommission = "COMMISSION"
	LedgerReasonReversal   = "REVERSAL"
	LedgerReasonWithdrawal = "WITHDRAWAL"
	LedgerReasonRefund     = "WITHDRAWAL_REFUND"
)

// System setting keys (admin-adjustable overrides for the commission config).
const (
	SettingCommissionRates   = "commission_level_rates"    // comma-separated percentages, level 1 first
	SettingGatewayFeePercent = "gateway_fee_percent"       // e.g. "3"
	SettingDiscountTiers     = "discount_tiers"            // "threshold:percent" pairs, comma-separated
	SettingUnlockThreshold   = "referral_unlock_threshold" // cumulative purchase total
)

// MaxReferralDepth bounds the ancestor walk of the referral registry.
const MaxReferralDepth = 8
