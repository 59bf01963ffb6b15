// Package worker runs the background loops that keep receipt records in sync
// with the provider and with blob storage.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vetmais/payments/internal/domain"
	"github.com/vetmais/payments/internal/receipt"
)

// SettlementWorker re-queries the provider for receipts issued against
// still-pending payments (PIX awaiting QR-code settlement) and promotes them
// once the provider confirms. It never mints numbers or creates rows.
type SettlementWorker struct {
	store     receipt.Store
	gateway   receipt.GatewayClient
	events    receipt.EventPublisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewSettlementWorker(
	store receipt.Store,
	gateway receipt.GatewayClient,
	events receipt.EventPublisher,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *SettlementWorker {
	return &SettlementWorker{
		store:     store,
		gateway:   gateway,
		events:    events,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *SettlementWorker) Start(ctx context.Context) {
	w.logger.Info("settlement worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("settlement worker stopping")
			return
		case <-ticker.C:
			if err := w.processPending(ctx); err != nil {
				w.logger.Error("settlement pass failed", "error", err)
			}
		}
	}
}

func (w *SettlementWorker) processPending(ctx context.Context) error {
	records, err := w.store.ListPendingSettlement(ctx, w.batchSize)
	if err != nil {
		return err
	}

	var settled int
	for _, record := range records {
		result, err := w.gateway.QueryPayment(ctx, record.PaymentID)
		if err != nil {
			w.logger.Warn("settlement query failed",
				"payment_id", record.PaymentID,
				"error", err,
			)
			continue
		}

		if result.Status == record.PaymentStatus {
			continue
		}

		if err := w.store.UpdatePaymentStatus(ctx, record.ID, result.Status); err != nil {
			w.logger.Error("settlement update failed",
				"receipt_id", record.ID,
				"error", err,
			)
			continue
		}

		if result.Status == domain.StatusApproved {
			settled++
			record.PaymentStatus = result.Status
			if w.events != nil {
				if err := w.events.ReceiptSettled(ctx, record); err != nil {
					w.logger.Warn("settlement event publish failed",
						"receipt_id", record.ID,
						"error", err,
					)
				}
			}
		}
	}

	if settled > 0 {
		w.logger.Info("settled pending receipts", "count", settled)
	}
	return nil
}
