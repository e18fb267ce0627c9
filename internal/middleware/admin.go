package middleware

import (
	"net/http"                      // HTTP status codes
	"wallet_ledger/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RequireRole loads the operator on each request and allows it through only
// when its current role is one of roles. The role in the token is not trusted.
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		operatorID, exists := c.Get(OperatorIDKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var operator domain.Operator
		if err := db.WithContext(c.Request.Context()).First(&operator, operatorID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Operator not found"})
			return
		}
		if !allowed[operator.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		c.Set(OperatorRoleKey, operator.Role)
		c.Next()
	}
}

// AdminOnlyMiddleware restricts a route group to admin operators
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RequireRole(db, domain.RoleAdmin)
}
