package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vetmais/payments/internal/domain"
	"github.com/vetmais/payments/internal/receipt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubStore struct {
	mu      sync.Mutex
	records []*domain.ReceiptRecord

	paymentStatusUpdates map[uuid.UUID]domain.PaymentStatus
	documentKeyUpdates   map[uuid.UUID]string
}

func newStubStore(records ...*domain.ReceiptRecord) *stubStore {
	return &stubStore{
		records:              records,
		paymentStatusUpdates: make(map[uuid.UUID]domain.PaymentStatus),
		documentKeyUpdates:   make(map[uuid.UUID]string),
	}
}

func (s *stubStore) FindByPaymentID(ctx context.Context, paymentID string) (*domain.ReceiptRecord, error) {
	return nil, &domain.NotFoundError{Resource: "receipt", ID: paymentID}
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReceiptRecord, error) {
	return nil, &domain.NotFoundError{Resource: "receipt", ID: id.String()}
}

func (s *stubStore) CreateIfAbsent(ctx context.Context, record *domain.ReceiptRecord) (*domain.ReceiptRecord, bool, error) {
	return record, true, nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReceiptStatus) error {
	return nil
}

func (s *stubStore) UpdateDocumentKey(ctx context.Context, id uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentKeyUpdates[id] = key
	return nil
}

func (s *stubStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentStatusUpdates[id] = status
	return nil
}

func (s *stubStore) ListByClientEmail(ctx context.Context, email string) ([]*domain.ReceiptRecord, error) {
	return nil, nil
}

func (s *stubStore) ListPendingSettlement(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	return s.records, nil
}

func (s *stubStore) ListMissingDocuments(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	return s.records, nil
}

type stubGateway struct {
	results map[string]*domain.PaymentResult
	err     error
}

func (g *stubGateway) QueryPayment(ctx context.Context, paymentID string) (*domain.PaymentResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	if result, ok := g.results[paymentID]; ok {
		return result, nil
	}
	return nil, &domain.NotFoundError{Resource: "payment", ID: paymentID}
}

type stubEvents struct {
	mu      sync.Mutex
	settled []*domain.ReceiptRecord
}

func (e *stubEvents) ReceiptGenerated(ctx context.Context, record *domain.ReceiptRecord) error {
	return nil
}

func (e *stubEvents) ReceiptSettled(ctx context.Context, record *domain.ReceiptRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settled = append(e.settled, record)
	return nil
}

type stubBlobs struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func newStubBlobs() *stubBlobs {
	return &stubBlobs{uploads: make(map[string][]byte)}
}

func (b *stubBlobs) Upload(ctx context.Context, name string, data []byte) (*receipt.UploadResult, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads[name] = data
	return &receipt.UploadResult{ObjectKey: name}, nil
}

func (b *stubBlobs) Download(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if data, ok := b.uploads[key]; ok {
		return data, nil
	}
	return nil, &domain.NotFoundError{Resource: "document", ID: key}
}
