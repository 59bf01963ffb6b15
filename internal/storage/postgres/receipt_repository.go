package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vetmais/payments/internal/domain"
)

const receiptColumns = `
	id, payment_id, number, client_name, client_email, client_tax_id,
	items, payment_method, payment_status, tid, proof_of_sale,
	authorization_code, amount_cents, currency, installment,
	document_key, status, created_at, updated_at
`

// ReceiptRepository persists receipt records. The unique index on payment_id
// is the idempotency gate: CreateIfAbsent is atomic insert-or-fetch.
type ReceiptRepository struct {
	db *DB
}

func NewReceiptRepository(db *DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// CreateIfAbsent inserts the record unless one already exists for its payment
// id. It returns the stored record and whether this call created it. Two
// concurrent calls for one payment id cannot both create: the unique index
// arbitrates, and the loser reads the winner's row.
func (r *ReceiptRepository) CreateIfAbsent(ctx context.Context, record *domain.ReceiptRecord) (*domain.ReceiptRecord, bool, error) {
	m, err := toDBModel(record)
	if err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (payment_id) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		m.ID, m.PaymentID, m.Number, m.ClientName, m.ClientEmail, m.ClientTaxID,
		m.Items, m.PaymentMethod, m.PaymentStatus, m.TID, m.ProofOfSale,
		m.AuthorizationCode, m.AmountCents, m.Currency, m.Installment,
		m.DocumentKey, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert receipt: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := r.FindByPaymentID(ctx, record.PaymentID)
		if err != nil {
			return nil, false, fmt.Errorf("fetch existing receipt after conflict: %w", err)
		}
		return existing, false, nil
	}

	return record, true, nil
}

func (r *ReceiptRepository) FindByPaymentID(ctx context.Context, paymentID string) (*domain.ReceiptRecord, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE payment_id = $1`
	return scanReceipt(r.db.Pool.QueryRow(ctx, query, paymentID), "payment", paymentID)
}

func (r *ReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReceiptRecord, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1`
	return scanReceipt(r.db.Pool.QueryRow(ctx, query, id), "receipt", id.String())
}

func (r *ReceiptRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReceiptStatus) error {
	query := `UPDATE receipts SET status = $1, updated_at = $2 WHERE id = $3`
	return r.exec(ctx, query, id, string(status), time.Now().UTC(), id)
}

func (r *ReceiptRepository) UpdateDocumentKey(ctx context.Context, id uuid.UUID, key string) error {
	query := `UPDATE receipts SET document_key = $1, updated_at = $2 WHERE id = $3`
	return r.exec(ctx, query, id, key, time.Now().UTC(), id)
}

func (r *ReceiptRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	query := `UPDATE receipts SET payment_status = $1, updated_at = $2 WHERE id = $3`
	return r.exec(ctx, query, id, string(status), time.Now().UTC(), id)
}

func (r *ReceiptRepository) exec(ctx context.Context, query string, id uuid.UUID, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "receipt", ID: id.String()}
	}
	return nil
}

func (r *ReceiptRepository) ListByClientEmail(ctx context.Context, email string) ([]*domain.ReceiptRecord, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE client_email = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, email)
}

// ListPendingSettlement returns receipts issued against payments still
// pending, oldest first. Used by the settlement worker.
func (r *ReceiptRepository) ListPendingSettlement(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE payment_status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	return r.list(ctx, query, string(domain.StatusPending), limit)
}

// ListMissingDocuments returns receipts still holding the placeholder
// document pointer. Used by the backfill worker.
func (r *ReceiptRepository) ListMissingDocuments(ctx context.Context, limit int) ([]*domain.ReceiptRecord, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE document_key = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	return r.list(ctx, query, domain.PlaceholderDocumentKey, limit)
}

func (r *ReceiptRepository) list(ctx context.Context, query string, args ...any) ([]*domain.ReceiptRecord, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.ReceiptRecord, error) {
		var m receiptModel
		if err := scanInto(row, &m); err != nil {
			return nil, err
		}
		return toDomainModel(&m)
	})
}

func scanReceipt(row pgx.Row, resource, id string) (*domain.ReceiptRecord, error) {
	var m receiptModel
	if err := scanInto(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: resource, ID: id}
		}
		return nil, fmt.Errorf("scan receipt: %w", err)
	}
	return toDomainModel(&m)
}

func scanInto(row pgx.Row, m *receiptModel) error {
	return row.Scan(
		&m.ID, &m.PaymentID, &m.Number, &m.ClientName, &m.ClientEmail, &m.ClientTaxID,
		&m.Items, &m.PaymentMethod, &m.PaymentStatus, &m.TID, &m.ProofOfSale,
		&m.AuthorizationCode, &m.AmountCents, &m.Currency, &m.Installment,
		&m.DocumentKey, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
}
