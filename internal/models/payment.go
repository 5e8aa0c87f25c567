package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	LeadAvailable = "available"
	LeadPurchased = "purchased"
)

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentRefundDue = "refund_due"

	PaymentTypeLeadPurchase = "lead_purchase"
	PaymentTypePayout       = "payout"
)

type ProjectLead struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	ContractorID  uuid.NullUUID
	Status        string
	LeadCostCents int64
	PurchasedAt   sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LeadListing is a lead joined with the project and assessment context a
// contractor needs to decide on a purchase.
type LeadListing struct {
	Lead             ProjectLead
	Project          Project
	RoomType         sql.NullString
	ImageURL         sql.NullString
	VisualizationURL sql.NullString
	HomeownerEmail   sql.NullString
	HomeAddress      sql.NullString
}

type LeadFilter struct {
	Query          string
	MinBudgetCents int64
	MaxBudgetCents int64
	RoomType       string
	Limit          int
}

type Payment struct {
	ID               uuid.UUID
	ProjectID        uuid.NullUUID
	PayerID          uuid.NullUUID
	PayeeID          uuid.NullUUID
	AmountCents      int64
	Currency         string
	StripeChargeID   sql.NullString
	StripeTransferID sql.NullString
	Status           string
	PaymentType      string
	CreatedAt        time.Time
}

// LeadPurchase carries the verified facts of a completed checkout session.
type LeadPurchase struct {
	EventID         string
	EventType       string
	LeadID          uuid.UUID
	ContractorID    uuid.UUID
	AmountCents     int64
	Currency        string
	PaymentIntentID string
}
