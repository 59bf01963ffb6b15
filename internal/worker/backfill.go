package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vetmais/payments/internal/domain"
	"github.com/vetmais/payments/internal/receipt"
)

// BackfillWorker retries document storage for receipts left with the
// placeholder pointer. It rebuilds each document from the persisted record
// (the reconciliation path) and never touches the provider.
type BackfillWorker struct {
	store     receipt.Store
	generator *receipt.Generator
	blobs     receipt.BlobStorage
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewBackfillWorker(
	store receipt.Store,
	generator *receipt.Generator,
	blobs receipt.BlobStorage,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *BackfillWorker {
	return &BackfillWorker{
		store:     store,
		generator: generator,
		blobs:     blobs,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *BackfillWorker) Start(ctx context.Context) {
	w.logger.Info("document backfill worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("document backfill worker stopping")
			return
		case <-ticker.C:
			if err := w.processMissing(ctx); err != nil {
				w.logger.Error("backfill pass failed", "error", err)
			}
		}
	}
}

func (w *BackfillWorker) processMissing(ctx context.Context) error {
	if w.blobs == nil {
		return nil
	}

	records, err := w.store.ListMissingDocuments(ctx, w.batchSize)
	if err != nil {
		return err
	}

	var recovered int
	for _, record := range records {
		if err := w.backfillOne(ctx, record); err != nil {
			w.logger.Warn("document backfill failed",
				"receipt_id", record.ID,
				"payment_id", record.PaymentID,
				"error", err,
			)
			continue
		}
		recovered++
	}

	if recovered > 0 {
		w.logger.Info("backfilled receipt documents", "count", recovered)
	}
	return nil
}

func (w *BackfillWorker) backfillOne(ctx context.Context, record *domain.ReceiptRecord) error {
	data, err := w.generator.RegenerateFromRecord(ctx, record)
	if err != nil {
		return fmt.Errorf("regenerate: %w", err)
	}

	name := fmt.Sprintf("receipts/%d/%s.html", record.CreatedAt.Year(), record.ID)
	upload, err := w.blobs.Upload(ctx, name, data)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	return w.store.UpdateDocumentKey(ctx, record.ID, upload.ObjectKey)
}
