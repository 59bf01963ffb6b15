package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vetmais/payments/internal/domain"
)

// IneligibleStatusError reports a payment whose status disallows receipt
// issuance. No receipt is produced.
type IneligibleStatusError struct {
	PaymentID string
	Status    domain.PaymentStatus
}

func (e *IneligibleStatusError) Error() string {
	return fmt.Sprintf("payment %s has status %s, receipt not issued", e.PaymentID, e.Status)
}

// GenerateRequest is the caller-supplied context for a receipt: the client
// snapshot and billed items the provider does not know about.
type GenerateRequest struct {
	PaymentID   string
	Method      domain.PaymentMethod
	ClientName  string
	ClientEmail string
	ClientTaxID string
	Currency    string
	Items       []domain.ReceiptItem
	Installment *domain.Installment
}

func (r *GenerateRequest) validate() error {
	if strings.TrimSpace(r.PaymentID) == "" {
		return domain.NewValidationError("payment_id", "payment id is required")
	}
	if r.ClientName == "" {
		return domain.NewValidationError("client_name", "client name is required")
	}
	if len(r.Items) == 0 {
		return domain.NewValidationError("items", "at least one line item is required")
	}
	for _, item := range r.Items {
		if item.AmountCents <= 0 {
			return domain.NewValidationError("items", "line item amount must be positive")
		}
	}
	return nil
}

type Generator struct {
	gateway      GatewayClient
	store        Store
	renderer     DocumentRenderer
	blobs        BlobStorage
	events       EventPublisher
	installments InstallmentSource
	logger       *slog.Logger

	now func() time.Time
}

func NewGenerator(
	gateway GatewayClient,
	store Store,
	renderer DocumentRenderer,
	blobs BlobStorage,
	events EventPublisher,
	installments InstallmentSource,
	logger *slog.Logger,
) *Generator {
	return &Generator{
		gateway:      gateway,
		store:        store,
		renderer:     renderer,
		blobs:        blobs,
		events:       events,
		installments: installments,
		logger:       logger,
		now:          time.Now,
	}
}

// Generate produces the receipt for paymentID exactly once. Duplicate or
// concurrent calls for the same payment id converge on one record: the store
// enforces uniqueness on payment id atomically, so losing racers get the
// winner's record back unchanged.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*domain.ReceiptRecord, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	existing, err := g.store.FindByPaymentID(ctx, req.PaymentID)
	if err == nil {
		return existing, nil
	}
	if _, ok := domain.IsNotFoundError(err); !ok {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}

	result, err := g.gateway.QueryPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}

	if !eligible(result.Status, req.Method) {
		return nil, &IneligibleStatusError{PaymentID: req.PaymentID, Status: result.Status}
	}

	now := g.now().UTC()
	record := &domain.ReceiptRecord{
		ID:                uuid.New(),
		PaymentID:         req.PaymentID,
		Number:            mintNumber(now),
		ClientName:        req.ClientName,
		ClientEmail:       req.ClientEmail,
		ClientTaxID:       req.ClientTaxID,
		Items:             req.Items,
		PaymentMethod:     req.Method,
		PaymentStatus:     result.Status,
		TID:               result.TID,
		ProofOfSale:       result.ProofOfSale,
		AuthorizationCode: result.AuthorizationCode,
		AmountCents:       result.AmountCents,
		Currency:          currencyOrDefault(result.Currency, req.Currency),
		Installment:       req.Installment,
		DocumentKey:       domain.PlaceholderDocumentKey,
		Status:            domain.ReceiptGenerated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	record.DocumentKey = g.renderAndStore(ctx, record)

	stored, created, err := g.store.CreateIfAbsent(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("persist receipt: %w", err)
	}
	if !created {
		// A concurrent call won the race; its record is the receipt.
		return stored, nil
	}

	if g.events != nil {
		if err := g.events.ReceiptGenerated(ctx, stored); err != nil {
			g.logger.Warn("receipt event publish failed",
				"receipt_id", stored.ID,
				"payment_id", stored.PaymentID,
				"error", err,
			)
		}
	}

	g.logger.Info("receipt generated",
		"receipt_id", stored.ID,
		"receipt_number", stored.Number,
		"payment_id", stored.PaymentID,
		"payment_status", stored.PaymentStatus,
	)
	return stored, nil
}

// renderAndStore synthesizes the document and uploads it. Any failure here
// degrades to the placeholder pointer: the financial record must never be
// lost because the binary artifact is temporarily unavailable.
func (g *Generator) renderAndStore(ctx context.Context, record *domain.ReceiptRecord) string {
	data, err := g.renderer.Render(record)
	if err != nil {
		g.logger.Warn("document render failed, keeping placeholder",
			"payment_id", record.PaymentID,
			"error", err,
		)
		return domain.PlaceholderDocumentKey
	}

	if g.blobs == nil {
		return domain.PlaceholderDocumentKey
	}

	upload, err := g.blobs.Upload(ctx, documentName(record), data)
	if err != nil {
		g.logger.Warn("document upload failed, keeping placeholder",
			"payment_id", record.PaymentID,
			"error", err,
		)
		return domain.PlaceholderDocumentKey
	}
	return upload.ObjectKey
}

// RegenerateFromRecord rebuilds the document deterministically from the
// persisted snapshot, without re-querying the provider and without minting a
// new receipt number. Used when the stored document is missing.
func (g *Generator) RegenerateFromRecord(ctx context.Context, record *domain.ReceiptRecord) ([]byte, error) {
	if record.Installment == nil && g.installments != nil {
		installment, err := g.installments.FindByPaymentID(ctx, record.PaymentID)
		if err == nil {
			record.Installment = installment
		} else if _, ok := domain.IsNotFoundError(err); !ok {
			g.logger.Warn("installment lookup failed during regeneration",
				"payment_id", record.PaymentID,
				"error", err,
			)
		}
	}
	return g.renderer.Render(record)
}

// Document fetches the stored document bytes, regenerating them from the
// record when the blob is missing.
func (g *Generator) Document(ctx context.Context, id uuid.UUID) (*domain.ReceiptRecord, []byte, error) {
	record, err := g.store.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !record.DocumentMissing() && g.blobs != nil {
		data, err := g.blobs.Download(ctx, record.DocumentKey)
		if err == nil {
			return record, data, nil
		}
		g.logger.Warn("stored document unavailable, regenerating",
			"receipt_id", record.ID,
			"document_key", record.DocumentKey,
			"error", err,
		)
	}

	data, err := g.RegenerateFromRecord(ctx, record)
	if err != nil {
		return nil, nil, fmt.Errorf("regenerate document: %w", err)
	}
	return record, data, nil
}

// MarkDownloaded records that the receipt document was handed to the client.
func (g *Generator) MarkDownloaded(ctx context.Context, id uuid.UUID) error {
	return g.transition(ctx, id, domain.ReceiptDownloaded)
}

// MarkSent records that the receipt was delivered, e.g. by email.
func (g *Generator) MarkSent(ctx context.Context, id uuid.UUID) error {
	return g.transition(ctx, id, domain.ReceiptSent)
}

func (g *Generator) transition(ctx context.Context, id uuid.UUID, target domain.ReceiptStatus) error {
	record, err := g.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if record.Status == target {
		return nil
	}
	if err := record.CanTransitionTo(target); err != nil {
		return err
	}
	return g.store.UpdateStatus(ctx, id, target)
}

// eligible allows Approved always, and Pending only for PIX sales awaiting
// QR-code settlement.
func eligible(status domain.PaymentStatus, method domain.PaymentMethod) bool {
	if status == domain.StatusApproved {
		return true
	}
	return status == domain.StatusPending && method == domain.MethodPix
}

// mintNumber creates the human-facing receipt number. Minted once per
// payment; the store's uniqueness gate guarantees only one survives.
func mintNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("REC-%d-%s", now.Year(), suffix)
}

func documentName(record *domain.ReceiptRecord) string {
	return fmt.Sprintf("receipts/%d/%s.html", record.CreatedAt.Year(), record.ID)
}

func currencyOrDefault(provider, requested string) string {
	if provider != "" {
		return provider
	}
	if requested != "" {
		return requested
	}
	return "BRL"
}
