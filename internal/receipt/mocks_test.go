package receipt

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vetmais/payments/internal/domain"
)

// Hand-rolled test doubles with overridable behavior per test.

type mockGateway struct {
	QueryPaymentFn func(ctx context.Context, paymentID string) (*domain.PaymentResult, error)

	mu      sync.Mutex
	queries int
}

func (m *mockGateway) QueryPayment(ctx context.Context, paymentID string) (*domain.PaymentResult, error) {
	m.mu.Lock()
	m.queries++
	m.mu.Unlock()
	return m.QueryPaymentFn(ctx, paymentID)
}

func (m *mockGateway) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

type mockStore struct {
	FindByPaymentIDFn     func(ctx context.Context, paymentID string) (*domain.ReceiptRecord, error)
	FindByIDFn            func(ctx context.Context, id uuid.UUID) (*domain.ReceiptRecord, error)
	CreateIfAbsentFn      func(ctx context.Context, record *domain.ReceiptRecord) (*domain.ReceiptRecord, bool, error)
	UpdateStatusFn        func(ctx context.Context, id uuid.UUID, status domain.ReceiptStatus) error
	UpdateDocumentKeyFn   func(ctx context.Context, id uuid.UUID, key string) error
	UpdatePaymentStatusFn func(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
	ListByClientEmailFn   func(ctx context.Context, email string) ([]*domain.ReceiptRecord, error)
}

func (m *mockStore) FindByPaymentID(ctx context.Context, paymentID string) (*domain.ReceiptRecord, error) {
	if m.FindByPaymentIDFn != nil {
		return m.FindByPaymentIDFn(ctx, paymentID)
	}
	return nil, &domain.NotFoundError{Resource: "receipt", ID: paymentID}
}

func (m *mockStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReceiptRecord, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, &domain.NotFoundError{Resource: "receipt", ID: id.String()}
}

func (m *mockStore) CreateIfAbsent(ctx context.Context, record *domain.ReceiptRecord) (*domain.ReceiptRecord, bool, error) {
	if m.CreateIfAbsentFn != nil {
		return m.CreateIfAbsentFn(ctx, record)
	}
	return record, true, nil
}

func (m *mockStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReceiptStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockStore) UpdateDocumentKey(ctx context.Context, id uuid.UUID, key string) error {
	if m.UpdateDocumentKeyFn != nil {
		return m.UpdateDocumentKeyFn(ctx, id, key)
	}
	return nil
}

func (m *mockStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	if m.UpdatePaymentStatusFn != nil {
		return m.UpdatePaymentStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockStore) ListByClientEmail(ctx context.Context, email string) ([]*domain.ReceiptRecord, error) {
	if m.ListByClientEmailFn != nil {
		return m.ListByClientEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockStore) ListPendingSettlement(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	return nil, nil
}

func (m *mockStore) ListMissingDocuments(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	return nil, nil
}

// memStore is an in-memory Store with the same atomicity contract as the
// database: one creator per payment id, losers get the winner's record.
type memStore struct {
	mu        sync.Mutex
	byPayment map[string]*domain.ReceiptRecord
}

func newMemStore() *memStore {
	return &memStore{byPayment: make(map[string]*domain.ReceiptRecord)}
}

func (s *memStore) FindByPaymentID(ctx context.Context, paymentID string) (*domain.ReceiptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.byPayment[paymentID]; ok {
		return record, nil
	}
	return nil, &domain.NotFoundError{Resource: "receipt", ID: paymentID}
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReceiptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.byPayment {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "receipt", ID: id.String()}
}

func (s *memStore) CreateIfAbsent(ctx context.Context, record *domain.ReceiptRecord) (*domain.ReceiptRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byPayment[record.PaymentID]; ok {
		return existing, false, nil
	}
	s.byPayment[record.PaymentID] = record
	return record, true, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReceiptStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.byPayment {
		if record.ID == id {
			record.Status = status
			return nil
		}
	}
	return &domain.NotFoundError{Resource: "receipt", ID: id.String()}
}

func (s *memStore) UpdateDocumentKey(ctx context.Context, id uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.byPayment {
		if record.ID == id {
			record.DocumentKey = key
			return nil
		}
	}
	return &domain.NotFoundError{Resource: "receipt", ID: id.String()}
}

func (s *memStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.byPayment {
		if record.ID == id {
			record.PaymentStatus = status
			return nil
		}
	}
	return &domain.NotFoundError{Resource: "receipt", ID: id.String()}
}

func (s *memStore) ListByClientEmail(ctx context.Context, email string) ([]*domain.ReceiptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ReceiptRecord
	for _, record := range s.byPayment {
		if record.ClientEmail == email {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memStore) ListPendingSettlement(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ReceiptRecord
	for _, record := range s.byPayment {
		if record.PaymentStatus == domain.StatusPending {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memStore) ListMissingDocuments(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ReceiptRecord
	for _, record := range s.byPayment {
		if record.DocumentMissing() {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byPayment)
}

type mockRenderer struct {
	RenderFn func(record *domain.ReceiptRecord) ([]byte, error)
}

func (m *mockRenderer) Render(record *domain.ReceiptRecord) ([]byte, error) {
	if m.RenderFn != nil {
		return m.RenderFn(record)
	}
	return []byte("<html>receipt</html>"), nil
}

type mockBlobs struct {
	UploadFn   func(ctx context.Context, name string, data []byte) (*UploadResult, error)
	DownloadFn func(ctx context.Context, key string) ([]byte, error)
}

func (m *mockBlobs) Upload(ctx context.Context, name string, data []byte) (*UploadResult, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, name, data)
	}
	return &UploadResult{ObjectKey: name, PublicURL: "https://blobs.test/" + name}, nil
}

func (m *mockBlobs) Download(ctx context.Context, key string) ([]byte, error) {
	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, key)
	}
	return []byte("<html>stored</html>"), nil
}

type mockEvents struct {
	mu        sync.Mutex
	generated []*domain.ReceiptRecord
	settled   []*domain.ReceiptRecord
	fail      error
}

func (m *mockEvents) ReceiptGenerated(ctx context.Context, record *domain.ReceiptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.generated = append(m.generated, record)
	return nil
}

func (m *mockEvents) ReceiptSettled(ctx context.Context, record *domain.ReceiptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.settled = append(m.settled, record)
	return nil
}

func (m *mockEvents) generatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.generated)
}

type mockInstallments struct {
	FindByPaymentIDFn func(ctx context.Context, paymentID string) (*domain.Installment, error)
}

func (m *mockInstallments) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Installment, error) {
	if m.FindByPaymentIDFn != nil {
		return m.FindByPaymentIDFn(ctx, paymentID)
	}
	return nil, &domain.NotFoundError{Resource: "installment", ID: paymentID}
}
