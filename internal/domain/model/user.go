package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleUser  = "USER"
	RoleMod   = "MOD"
	RoleAdmin = "ADMIN"
)

const (
	StatusActive  = "ACTIVE"
	StatusPending = "PENDING"
	StatusBlocked = "BLOCKED"
)

// User is an account document in the "users" collection. Self-registered
// accounts are USER/ACTIVE; MOD and ADMIN accounts start PENDING and need an
// admin approval before they can sign in to the admin surface.
type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string        `bson:"username" json:"username"`
	Email          string        `bson:"email" json:"email"`
	HashedPassword string        `bson:"password" json:"-"` // Not exposed
	Role           string        `bson:"role" json:"role"`
	Status         string        `bson:"status" json:"status"`
	TotalScore     int           `bson:"total_score" json:"total_score"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
}

// IsPrivileged reports whether the account holds a moderator or admin role.
func (u *User) IsPrivileged() bool {
	return u.Role == RoleMod || u.Role == RoleAdmin
}
