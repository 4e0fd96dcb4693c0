package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusHistoryEntry is an immutable journal record of one status change.
// It is linked to its case by the external case_id only.
type StatusHistoryEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaseID     string             `bson:"case_id" json:"case_id"`
	OldStatus  string             `bson:"old_status" json:"old_status"`
	NewStatus  string             `bson:"new_status" json:"new_status"`
	ChangedAt  time.Time          `bson:"changed_at" json:"changed_at"`
	Reconciled bool               `bson:"reconciled,omitempty" json:"reconciled,omitempty"`
}
