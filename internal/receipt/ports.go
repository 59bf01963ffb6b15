// Package receipt turns approved provider transactions into durable,
// auditable proof-of-payment documents, exactly once per payment.
package receipt

import (
	"context"

	"github.com/google/uuid"
	"github.com/vetmais/payments/internal/domain"
)

// GatewayClient is the slice of the provider client the generator needs.
type GatewayClient interface {
	QueryPayment(ctx context.Context, paymentID string) (*domain.PaymentResult, error)
}

// Store persists receipt records. FindByPaymentID and FindByID return a
// domain.NotFoundError when no record exists. CreateIfAbsent must be atomic
// on payment id: of two concurrent calls exactly one creates, the other gets
// the stored record back with created=false.
type Store interface {
	FindByPaymentID(ctx context.Context, paymentID string) (*domain.ReceiptRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ReceiptRecord, error)
	CreateIfAbsent(ctx context.Context, record *domain.ReceiptRecord) (*domain.ReceiptRecord, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReceiptStatus) error
	UpdateDocumentKey(ctx context.Context, id uuid.UUID, key string) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
	ListByClientEmail(ctx context.Context, email string) ([]*domain.ReceiptRecord, error)
	ListPendingSettlement(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error)
	ListMissingDocuments(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error)
}

// DocumentRenderer turns a receipt record into the document bytes.
type DocumentRenderer interface {
	Render(record *domain.ReceiptRecord) ([]byte, error)
}

// UploadResult points at a stored document.
type UploadResult struct {
	ObjectKey string
	PublicURL string
}

// BlobStorage stores rendered documents. Optional: generation degrades to a
// placeholder pointer when it is absent or failing.
type BlobStorage interface {
	Upload(ctx context.Context, name string, data []byte) (*UploadResult, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// EventPublisher notifies the rest of the system about receipt lifecycle
// events. Publish failures never fail generation.
type EventPublisher interface {
	ReceiptGenerated(ctx context.Context, record *domain.ReceiptRecord) error
	ReceiptSettled(ctx context.Context, record *domain.ReceiptRecord) error
}

// InstallmentSource resolves installment metadata by payment id for the
// reconciliation path.
type InstallmentSource interface {
	FindByPaymentID(ctx context.Context, paymentID string) (*domain.Installment, error)
}
