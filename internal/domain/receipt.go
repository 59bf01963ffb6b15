package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptStatus is the lifecycle state of a receipt record.
type ReceiptStatus string

const (
	ReceiptGenerated  ReceiptStatus = "GENERATED"
	ReceiptDownloaded ReceiptStatus = "DOWNLOADED"
	ReceiptSent       ReceiptStatus = "SENT"
)

// PlaceholderDocumentKey marks a receipt whose rendered document could not be
// stored at generation time. The backfill worker retries the upload later;
// the financial record itself is never lost.
const PlaceholderDocumentKey = "pending-upload"

// ReceiptItem is one billed line on a receipt.
type ReceiptItem struct {
	PetName       string
	PlanName      string
	Description   string
	AmountCents   int64
	DiscountCents int64
}

// Installment links a receipt to a billing period when the sale is part of a
// recurring plan.
type Installment struct {
	Period  string
	Number  int
	DueDate time.Time
}

// ReceiptRecord is the durable proof-of-payment record. Created exactly once
// per payment id, mutated only by status transitions, never deleted.
type ReceiptRecord struct {
	ID                uuid.UUID
	PaymentID         string
	Number            string
	ClientName        string
	ClientEmail       string
	ClientTaxID       string
	Items             []ReceiptItem
	PaymentMethod     PaymentMethod
	PaymentStatus     PaymentStatus
	TID               string
	ProofOfSale       string
	AuthorizationCode string
	AmountCents       int64
	Currency          string
	Installment       *Installment
	DocumentKey       string
	Status            ReceiptStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TotalCents sums the line items net of discounts.
func (r *ReceiptRecord) TotalCents() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.AmountCents - item.DiscountCents
	}
	return total
}

// CanTransitionTo validates a lifecycle transition.
//
// Valid transitions are:
//   - Generated → Downloaded, Sent
//   - Downloaded → Sent
//
// Sent is terminal.
func (r *ReceiptRecord) CanTransitionTo(target ReceiptStatus) error {
	switch r.Status {
	case ReceiptGenerated:
		if target == ReceiptDownloaded || target == ReceiptSent {
			return nil
		}
	case ReceiptDownloaded:
		if target == ReceiptSent {
			return nil
		}
	}
	return NewValidationError("status", string("cannot transition receipt from "+r.Status+" to "+target))
}

// DocumentMissing reports whether the rendered document still needs upload.
func (r *ReceiptRecord) DocumentMissing() bool {
	return r.DocumentKey == "" || r.DocumentKey == PlaceholderDocumentKey
}
