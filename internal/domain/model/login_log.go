package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	LoginStatusSuccess = "SUCCESS"
	LoginStatusFailed  = "FAILED"
)

// LoginLog is a per-attempt record in the "login_logs" collection. Every
// credential login is recorded, successful or not; failed attempts carry the
// reason shown to the client. UserID is set whenever the identifier matched
// an account, even if the attempt was then refused.
type LoginLog struct {
	ID         bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID     *bson.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Identifier string         `bson:"identifier" json:"identifier"`
	IPAddress  string         `bson:"ip_address" json:"ip_address"`
	UserAgent  string         `bson:"user_agent" json:"user_agent"`
	Status     string         `bson:"status" json:"status"`
	Reason     string         `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
}
