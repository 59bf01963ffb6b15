package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetmais/payments/internal/domain"
	"github.com/vetmais/payments/internal/receipt"
)

func placeholderRecord() *domain.ReceiptRecord {
	return &domain.ReceiptRecord{
		ID:            uuid.New(),
		PaymentID:     "pay-backfill",
		Number:        "REC-2026-BBBB0001",
		ClientName:    "Maria Souza",
		Items:         []domain.ReceiptItem{{PetName: "Rex", PlanName: "Plano Premium", AmountCents: 15000}},
		PaymentMethod: domain.MethodCreditCard,
		PaymentStatus: domain.StatusApproved,
		DocumentKey:   domain.PlaceholderDocumentKey,
		Status:        domain.ReceiptGenerated,
		CreatedAt:     time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
}

func backfillGenerator(t *testing.T) *receipt.Generator {
	t.Helper()
	renderer, err := receipt.NewHTMLRenderer()
	require.NoError(t, err)
	return receipt.NewGenerator(&stubGateway{}, newStubStore(), renderer, nil, nil, nil, testLogger())
}

func TestBackfillWorker_UploadsMissingDocuments(t *testing.T) {
	record := placeholderRecord()
	store := newStubStore(record)
	blobs := newStubBlobs()

	w := NewBackfillWorker(store, backfillGenerator(t), blobs, time.Minute, 50, testLogger())
	require.NoError(t, w.processMissing(context.Background()))

	wantKey := fmt.Sprintf("receipts/2026/%s.html", record.ID)
	assert.Equal(t, wantKey, store.documentKeyUpdates[record.ID])

	data, ok := blobs.uploads[wantKey]
	require.True(t, ok)
	assert.Contains(t, string(data), record.Number, "document rebuilt from the stored snapshot")
}

func TestBackfillWorker_UploadFailureLeavesPlaceholder(t *testing.T) {
	record := placeholderRecord()
	store := newStubStore(record)
	blobs := newStubBlobs()
	blobs.err = errors.New("bucket unavailable")

	w := NewBackfillWorker(store, backfillGenerator(t), blobs, time.Minute, 50, testLogger())
	require.NoError(t, w.processMissing(context.Background()), "a failed upload is retried next pass, not fatal")
	assert.Empty(t, store.documentKeyUpdates)
}

func TestBackfillWorker_NoBlobStorageIsNoop(t *testing.T) {
	record := placeholderRecord()
	store := newStubStore(record)

	w := NewBackfillWorker(store, backfillGenerator(t), nil, time.Minute, 50, testLogger())
	require.NoError(t, w.processMissing(context.Background()))
	assert.Empty(t, store.documentKeyUpdates)
}
