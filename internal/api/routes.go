package api

import (
	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/middleware"
	"wallet_ledger/internal/wallet"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes mounts the auth, wallet and admin routes on r.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc *wallet.Service, jwtSecret string) {
	r.POST("/auth/login", LoginHandler(db, jwtSecret))

	// Wallet routes, any authenticated operator may read
	walletGroup := r.Group("/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(jwtSecret))
	walletGroup.GET("/overview", OverviewHandler(svc))
	walletGroup.GET("/accounts", ListAccountsHandler(svc))
	walletGroup.GET("/accounts/:id", GetAccountHandler(svc))
	walletGroup.GET("/accounts/:id/transactions", ListTransactionsHandler(svc))
	walletGroup.GET("/settings", GetSettingsHandler(svc))

	// Writes need finance or admin
	writers := walletGroup.Group("")
	writers.Use(middleware.RequireRole(db, domain.RoleAdmin, domain.RoleFinance))
	writers.POST("/accounts", CreateAccountHandler(svc))
	writers.PATCH("/accounts/:id", UpdateAccountHandler(svc))
	writers.POST("/accounts/:id/transactions", RecordTransactionHandler(svc))
	writers.POST("/accounts/:id/reconcile", ReconcileAccountHandler(svc))

	admins := walletGroup.Group("")
	admins.Use(middleware.AdminOnlyMiddleware(db))
	admins.PUT("/settings", SaveSettingsHandler(svc))

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(jwtSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.POST("/operators", RegisterOperatorHandler(db))
}
