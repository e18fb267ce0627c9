package domain

// Operator roles
const (
	RoleAdmin   = "admin"   // Full access, settings and operators
	RoleFinance = "finance" // May post transactions
	RoleViewer  = "viewer"  // Read only
)

// Operator Model, a back-office user whose id is recorded as the actor of postings
type Operator struct {
	ID       uint   `gorm:"primaryKey"`                       // Primary key
	Username string `gorm:"type:varchar(64);unique;not null"` // Unique username
	Password string `gorm:"not null"`                         // Hashed password
	Role     string `gorm:"type:varchar(16);default:viewer"`  // admin, finance or viewer
}

// ValidRole reports whether role is one of the operator roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleFinance || role == RoleViewer
}
