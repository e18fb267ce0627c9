package api

import (
	"net/http"                      // HTTP status codes
	"regexp"                        // Regular expressions
	"strings"                       // String manipulation
	"wallet_ledger/internal/domain" // Importing domain models
	"wallet_ledger/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterOperatorRequest is sent by an admin to create an operator
type RegisterOperatorRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest is sent by an operator to obtain a token
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token
type AuthResponse struct {
	Token string `json:"token"`
}

var usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9._-]{2,63}$`)

// isValidPassword checks the password length
func isValidPassword(password string) bool {
	return len(password) >= 10 && len(password) <= 72 // bcrypt ignores bytes past 72
}

// RegisterOperatorHandler creates a back-office operator
func RegisterOperatorHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterOperatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		username := strings.ToLower(strings.TrimSpace(req.Username))
		if !usernamePattern.MatchString(username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be 3-64 lowercase letters, digits, '.', '_' or '-'"})
			return
		}
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 10-72 characters"})
			return
		}
		if !domain.ValidRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be admin, finance or viewer"})
			return
		}
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		operator := domain.Operator{Username: username, Password: hash, Role: req.Role}
		if err := db.WithContext(c.Request.Context()).Create(&operator).Error; err != nil {
			// Unique index on username
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"operator_id": operator.ID,
			"role":        operator.Role,
			"created_by":  actorID(c),
		}).Info("Operator registered")
		c.JSON(http.StatusCreated, gin.H{"id": operator.ID, "username": operator.Username, "role": operator.Role})
	}
}

// LoginHandler authenticates an operator and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var operator domain.Operator
		if err := db.WithContext(c.Request.Context()).Where("username = ?", strings.ToLower(strings.TrimSpace(req.Username))).First(&operator).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if !utils.CheckPassword(operator.Password, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		token, err := utils.GenerateJWT(operator.ID, operator.Role, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}
