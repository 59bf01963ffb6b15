package domain

import "time"

// PaymentStatus is the internal status a provider transaction normalizes to.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusApproved  PaymentStatus = "APPROVED"
	StatusDeclined  PaymentStatus = "DECLINED"
	StatusCancelled PaymentStatus = "CANCELLED"
	StatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentResult is the normalized view of a provider transaction. It is
// ephemeral: always re-fetched from the provider, never persisted verbatim.
type PaymentResult struct {
	PaymentID           string
	Status              PaymentStatus
	TID                 string
	ProofOfSale         string
	AuthorizationCode   string
	AmountCents         int64
	CapturedAmountCents int64
	CapturedAt          *time.Time
	ReceivedAt          *time.Time
	Currency            string
	Country             string
	ReturnCode          string
	ReturnMessage       string
	QRCodeBase64Image   string
	QRCodeString        string
}
