package model

import "time"

const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"
	DisputeStatusRejected = "rejected"
)

type Dispute struct {
	ID            string    `db:"id"`
	PurchaseID    string    `db:"purchase_id"`
	OpenedByID    string    `db:"opened_by_id"`
	Reason        string    `db:"reason"`
	Status        string    `db:"status"`
	EvidencePaths string    `db:"evidence_paths"` // comma-separated storage paths (disputes bucket)
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
