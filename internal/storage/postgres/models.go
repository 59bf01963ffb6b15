package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vetmais/payments/internal/domain"
)

type receiptModel struct {
	ID                uuid.UUID
	PaymentID         string
	Number            string
	ClientName        string
	ClientEmail       string
	ClientTaxID       *string
	Items             []byte
	PaymentMethod     string
	PaymentStatus     string
	TID               *string
	ProofOfSale       *string
	AuthorizationCode *string
	AmountCents       int64
	Currency          string
	Installment       []byte
	DocumentKey       string
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type itemModel struct {
	PetName       string `json:"pet_name"`
	PlanName      string `json:"plan_name"`
	Description   string `json:"description,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
}

type installmentModel struct {
	Period  string    `json:"period"`
	Number  int       `json:"number"`
	DueDate time.Time `json:"due_date"`
}

func toDBModel(r *domain.ReceiptRecord) (*receiptModel, error) {
	items := make([]itemModel, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, itemModel(item))
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt items: %w", err)
	}

	var installmentJSON []byte
	if r.Installment != nil {
		installmentJSON, err = json.Marshal(installmentModel(*r.Installment))
		if err != nil {
			return nil, fmt.Errorf("marshal installment: %w", err)
		}
	}

	return &receiptModel{
		ID:                r.ID,
		PaymentID:         r.PaymentID,
		Number:            r.Number,
		ClientName:        r.ClientName,
		ClientEmail:       r.ClientEmail,
		ClientTaxID:       nullable(r.ClientTaxID),
		Items:             itemsJSON,
		PaymentMethod:     string(r.PaymentMethod),
		PaymentStatus:     string(r.PaymentStatus),
		TID:               nullable(r.TID),
		ProofOfSale:       nullable(r.ProofOfSale),
		AuthorizationCode: nullable(r.AuthorizationCode),
		AmountCents:       r.AmountCents,
		Currency:          r.Currency,
		Installment:       installmentJSON,
		DocumentKey:       r.DocumentKey,
		Status:            string(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

func toDomainModel(m *receiptModel) (*domain.ReceiptRecord, error) {
	var items []itemModel
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal receipt items: %w", err)
		}
	}
	domainItems := make([]domain.ReceiptItem, 0, len(items))
	for _, item := range items {
		domainItems = append(domainItems, domain.ReceiptItem(item))
	}

	var installment *domain.Installment
	if len(m.Installment) > 0 {
		var im installmentModel
		if err := json.Unmarshal(m.Installment, &im); err != nil {
			return nil, fmt.Errorf("unmarshal installment: %w", err)
		}
		converted := domain.Installment(im)
		installment = &converted
	}

	return &domain.ReceiptRecord{
		ID:                m.ID,
		PaymentID:         m.PaymentID,
		Number:            m.Number,
		ClientName:        m.ClientName,
		ClientEmail:       m.ClientEmail,
		ClientTaxID:       deref(m.ClientTaxID),
		Items:             domainItems,
		PaymentMethod:     domain.PaymentMethod(m.PaymentMethod),
		PaymentStatus:     domain.PaymentStatus(m.PaymentStatus),
		TID:               deref(m.TID),
		ProofOfSale:       deref(m.ProofOfSale),
		AuthorizationCode: deref(m.AuthorizationCode),
		AmountCents:       m.AmountCents,
		Currency:          m.Currency,
		Installment:       installment,
		DocumentKey:       m.DocumentKey,
		Status:            domain.ReceiptStatus(m.Status),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
