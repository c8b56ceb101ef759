package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	ReportStatusPending  = "PENDING"
	ReportStatusResolved = "RESOLVED"
	ReportStatusRejected = "REJECTED"
)

// Report is a moderation report document in the "reports" collection.
// RESOLVED and REJECTED are terminal: resolved_by and resolved_at are set
// exactly once, on the transition out of PENDING.
type Report struct {
	ID           bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReporterID   bson.ObjectID  `bson:"reporter_id" json:"reporter_id"`
	TargetUserID *bson.ObjectID `bson:"target_user_id,omitempty" json:"target_user_id,omitempty"`
	QuestionID   *bson.ObjectID `bson:"question_id,omitempty" json:"question_id,omitempty"`
	Reason       string         `bson:"reason" json:"reason"`
	Status       string         `bson:"status" json:"status"`
	ResolvedBy   *bson.ObjectID `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	ResolvedAt   *time.Time     `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
