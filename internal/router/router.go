package router

import (
	"time"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/handler"
	"bazaar/internal/middleware"
	"bazaar/internal/repository"
	"bazaar/internal/service"
	"bazaar/internal/ws"
	"bazaar/pkg/gateway"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, cfgHolder *config.CommissionConfigHolder, db *gorm.DB, provider gateway.Provider, log *zap.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	chatRepo := repository.NewChatRepository(db)

	chatHub := ws.NewChatHub()
	pushHub := ws.NewHub()

	// Services
	notifSvc := service.NewNotificationService(notificationRepo, pushHub, log)
	referralSvc := service.NewReferralService(db, referralRepo, log)
	authSvc := service.NewAuthService(cfg, userRepo, referralSvc, log)
	pricingSvc := service.NewPricingService(cfgHolder, userRepo, log)
	commissionSvc := service.NewCommissionService(cfgHolder, referralSvc, orderRepo, commissionRepo, walletRepo, log)
	orderSvc := service.NewOrderService(db, orderRepo, productRepo, paymentRepo, userRepo,
		pricingSvc, commissionSvc, notifSvc, provider, cfg.Server.PublicURL+"/api/v1/webhooks/payment", log)
	walletSvc := service.NewWalletService(db, walletRepo, withdrawalRepo, commissionRepo,
		notifSvc, provider, cfg.Server.PublicURL+"/api/v1/webhooks/payout", log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo, log)
	oauthHandler := handler.NewGoogleOAuthHandler(authSvc, log)
	meHandler := handler.NewMeHandler(userRepo, pricingSvc)
	referralHandler := handler.NewReferralHandler(referralSvc, pricingSvc)
	productHandler := handler.NewProductHandler(productRepo)
	orderHandler := handler.NewOrderHandler(orderSvc, log)
	walletHandler := handler.NewWalletHandler(walletSvc, commissionRepo)
	withdrawalHandler := handler.NewWithdrawalHandler(walletSvc, log)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	chatHandler := handler.NewChatHandler(chatRepo, orderRepo)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(orderSvc, auditRepo, &cfg.Gateway, log)
	payoutWebhookHandler := handler.NewWithdrawalWebhookHandler(walletSvc, auditRepo, &cfg.Gateway, log)
	adminHandler := handler.NewAdminHandler(adminRepo, commissionRepo, withdrawalRepo,
		settingRepo, auditRepo, commissionSvc, cfgHolder, log)

	authMw := middleware.AuthRequired(&cfg.JWT)
	moneyLimiter := middleware.NewInMemoryRateLimiter(10, 60*time.Second)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", oauthHandler.Start)
			authGroup.GET("/google/callback", oauthHandler.Callback)
		}

		api.GET("/products", productHandler.List)
		api.GET("/products/:id", productHandler.Get)

		api.POST("/referral/register", authMw, referralHandler.Link)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", meHandler.Get)
			me.PATCH("", meHandler.Update)
			me.GET("/referral-code", referralHandler.GetMyCode)
			me.GET("/referrals", referralHandler.GetMyReferrals)
			me.POST("/referral", referralHandler.Link)
			me.GET("/wallet", walletHandler.Get)
			me.GET("/wallet/ledger", walletHandler.Ledger)
			me.GET("/commissions", walletHandler.Commissions)
			me.GET("/withdrawals", withdrawalHandler.List)
			me.POST("/withdrawals", middleware.RateLimitByUser(moneyLimiter), withdrawalHandler.Create)
			me.GET("/notifications", notificationHandler.List)
			me.POST("/notifications/:id/read", notificationHandler.MarkRead)
		}

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("/checkout", middleware.RateLimitByUser(moneyLimiter), orderHandler.Checkout)
			orders.GET("", orderHandler.ListMine)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/confirm-delivery", orderHandler.ConfirmDelivery)
			orders.GET("/:id/chat", chatHandler.History)
		}

		seller := api.Group("/seller")
		seller.Use(authMw, middleware.RequireRole(domain.RoleSeller, domain.RoleAdmin))
		{
			seller.GET("/products", productHandler.ListMine)
			seller.POST("/products", productHandler.Create)
			seller.PATCH("/products/:id", productHandler.Update)
			seller.DELETE("/products/:id", productHandler.Delete)
			seller.GET("/orders", orderHandler.ListForSeller)
			seller.POST("/orders/:id/ship", orderHandler.Ship)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id", adminHandler.UpdateUser)
			admin.GET("/commissions", adminHandler.ListCommissions)
			admin.POST("/commissions/:id/void", adminHandler.VoidCommission)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.GET("/audit-logs", adminHandler.AuditLogs)
		}

		api.GET("/ws/chat", handler.UpgradeChatWS(&cfg.JWT, chatHub, orderRepo, chatRepo))
		api.GET("/ws/notifications", handler.UpgradeNotifyWS(&cfg.JWT, pushHub))

		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/payment", paymentWebhookHandler.Handle)
			webhooks.POST("/payout", payoutWebhookHandler.Handle)
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
