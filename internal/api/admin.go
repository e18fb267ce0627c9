package api

import (
	"net/http" // HTTP status codes

	"wallet_ledger/internal/wallet" // Wallet ledger service

	"github.com/gin-gonic/gin" // Gin web framework
)

// OverviewHandler returns the wallet dashboard
func OverviewHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := svc.GetOverview(c.Request.Context(), wallet.OverviewInput{
			Search:   c.Query("search"),
			Status:   c.Query("status"),
			Page:     queryInt(c, "page", 1),
			PageSize: queryInt(c, "page_size", 0),
		})
		if err != nil {
			respondError(c, err, "Load wallet overview")
			return
		}
		c.JSON(http.StatusOK, overview)
	}
}

// GetSettingsHandler returns the normalized wallet settings
func GetSettingsHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := svc.GetSettings(c.Request.Context())
		if err != nil {
			respondError(c, err, "Load wallet settings")
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

// SaveSettingsHandler normalizes and stores the wallet settings
func SaveSettingsHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Accept both {"settings": {...}} and the bare settings object
		if inner, ok := body["settings"].(map[string]any); ok {
			body = inner
		}
		settings, err := svc.SaveSettings(c.Request.Context(), actorID(c), body)
		if err != nil {
			respondError(c, err, "Save wallet settings")
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
