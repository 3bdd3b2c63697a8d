package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminRepo      *repository.AdminRepository
	commissionRepo *repository.CommissionRepository
	withdrawalRepo *repository.WithdrawalRepository
	settingRepo    *repository.SettingRepository
	auditRepo      *repository.AuditLogRepository
	commissionSvc  *service.CommissionService
	cfgHolder      *config.CommissionConfigHolder
	log            *zap.Logger
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	commissionRepo *repository.CommissionRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	settingRepo *repository.SettingRepository,
	auditRepo *repository.AuditLogRepository,
	commissionSvc *service.CommissionService,
	cfgHolder *config.CommissionConfigHolder,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:      adminRepo,
		commissionRepo: commissionRepo,
		withdrawalRepo: withdrawalRepo,
		settingRepo:    settingRepo,
		auditRepo:      auditRepo,
		commissionSvc:  commissionSvc,
		cfgHolder:      cfgHolder,
		log:            log,
	}
}

// Dashboard returns marketplace-wide stats.
// GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers supports search and role filtering.
// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	users, total, err := h.adminRepo.ListUsers(c.Query("q"), c.Query("role"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "page": page})
}

type AdminUpdateUserRequest struct {
	Role *string `json:"role" binding:"omitempty,oneof=CUSTOMER SELLER ADMIN"`
}

// UpdateUser changes a user's role.
// PATCH /admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if _, err := h.adminRepo.GetUserByID(uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err := h.adminRepo.UpdateUser(uint(id), updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update user"})
		return
	}
	h.audit(c, "admin_update_user", "user", c.Param("id"))
	user, _ := h.adminRepo.GetUserByID(uint(id))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListCommissions is the commission report.
// GET /admin/commissions
func (h *AdminHandler) ListCommissions(c *gin.Context) {
	if orderIDStr := c.Query("order_id"); orderIDStr != "" {
		orderID, err := strconv.ParseUint(orderIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_id"})
			return
		}
		list, err := h.commissionRepo.ListByOrderID(uint(orderID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list commissions"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"commissions": list, "total": len(list)})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, total, err := h.commissionRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list commissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": list, "total": total})
}

// VoidCommission reverses a commission with a compensating ledger entry.
// POST /admin/commissions/:id/void
func (h *AdminHandler) VoidCommission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	entry, err := h.commissionSvc.Void(uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "beneficiary balance already spent"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not void commission"})
		return
	}
	h.audit(c, "admin_void_commission", "commission", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"reversal_entry": entry})
}

// ListWithdrawals shows payouts across all users.
// GET /admin/withdrawals
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, total, err := h.withdrawalRepo.List(c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list, "total": total})
}

// GetSettings returns the live commission schedule plus stored overrides.
// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	stored, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active": h.cfgHolder.Load(),
		"stored": stored,
	})
}

type UpdateSettingsRequest struct {
	GatewayFeePercent *string  `json:"gateway_fee_percent"`
	LevelRates        []string `json:"level_rates"`
	DiscountTiers     []string `json:"discount_tiers"` // "threshold:percent"
	UnlockThreshold   *string  `json:"unlock_threshold"`
}

// UpdateSettings validates the new schedule, swaps it in atomically and
// persists the override rows. In-flight settlements keep the snapshot they
// started with.
// PUT /admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := h.cfgHolder.Load()
	if req.GatewayFeePercent != nil {
		fee, err := decimal.NewFromString(*req.GatewayFeePercent)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gateway_fee_percent"})
			return
		}
		cfg.GatewayFeePercent = fee
	}
	if req.LevelRates != nil {
		rates := make([]decimal.Decimal, 0, len(req.LevelRates))
		for _, s := range req.LevelRates {
			d, err := decimal.NewFromString(strings.TrimSpace(s))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid level rate: " + s})
				return
			}
			rates = append(rates, d)
		}
		cfg.LevelRates = rates
	}
	if req.DiscountTiers != nil {
		tiers := make([]config.TierBand, 0, len(req.DiscountTiers))
		for _, s := range req.DiscountTiers {
			parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
			if len(parts) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "discount tier must be threshold:percent"})
				return
			}
			threshold, err1 := decimal.NewFromString(parts[0])
			percent, err2 := decimal.NewFromString(parts[1])
			if err1 != nil || err2 != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid discount tier: " + s})
				return
			}
			tiers = append(tiers, config.TierBand{Threshold: threshold, Percent: percent})
		}
		cfg.DiscountTiers = tiers
	}
	if req.UnlockThreshold != nil {
		threshold, err := decimal.NewFromString(*req.UnlockThreshold)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unlock_threshold"})
			return
		}
		cfg.UnlockThreshold = threshold
	}

	if err := h.cfgHolder.Update(cfg); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	h.persistSettings(req, middleware.GetUserID(c))
	h.audit(c, "admin_update_settings", "settings", "")
	h.log.Info("commission schedule updated",
		zap.Int("version", h.cfgHolder.Load().Version),
		zap.Uint("admin_id", middleware.GetUserID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"active": h.cfgHolder.Load()})
}

func (h *AdminHandler) persistSettings(req UpdateSettingsRequest, adminID uint) {
	if req.GatewayFeePercent != nil {
		_ = h.settingRepo.Set(domain.SettingGatewayFeePercent, *req.GatewayFeePercent, adminID)
	}
	if req.LevelRates != nil {
		_ = h.settingRepo.Set(domain.SettingCommissionRates, strings.Join(req.LevelRates, ","), adminID)
	}
	if req.DiscountTiers != nil {
		_ = h.settingRepo.Set(domain.SettingDiscountTiers, strings.Join(req.DiscountTiers, ","), adminID)
	}
	if req.UnlockThreshold != nil {
		_ = h.settingRepo.Set(domain.SettingUnlockThreshold, *req.UnlockThreshold, adminID)
	}
}

// AuditLogs returns recent admin and webhook activity.
// GET /admin/audit-logs
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.auditRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": list})
}

func (h *AdminHandler) audit(c *gin.Context, action, resource, resourceID string) {
	adminID := middleware.GetUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}
