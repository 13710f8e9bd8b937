package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/datatypes"
)

// Role values, in descending privilege order. Admin and Manager may mutate
// business records and read audit logs; Admin additionally bypasses the
// tenant allow-list.
const (
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleOperator = "Operator"
	RoleUser     = "User"
)

// User is an account in the auth tenant's store.
type User struct {
	ID        snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Email     string                       `gorm:"uniqueIndex;not null" json:"email"`
	Password  string                       `gorm:"not null" json:"-"`
	Name      string                       `json:"name"`
	Role      string                       `gorm:"not null;default:User" json:"role"`
	Confirmed bool                         `gorm:"not null;default:false" json:"confirmed"`
	Tenants   datatypes.JSONSlice[string]  `json:"tenants"`
	CreatedAt time.Time                    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                    `gorm:"not null" json:"updated_at"`
}

// Claims is the verified content of a bearer token. The core trusts it
// verbatim once the signature checks out.
type Claims struct {
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Tenants []string `json:"tenants"`
	jwt.RegisteredClaims
}
