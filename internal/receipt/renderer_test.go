package receipt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetmais/payments/internal/domain"
)

func TestHTMLRenderer_Render(t *testing.T) {
	renderer, err := NewHTMLRenderer()
	require.NoError(t, err)

	record := &domain.ReceiptRecord{
		ID:          uuid.New(),
		PaymentID:   "pay-500",
		Number:      "REC-2026-AB12CD34",
		ClientName:  "Maria Souza",
		ClientEmail: "maria@example.com",
		ClientTaxID: "11144477735",
		Items: []domain.ReceiptItem{
			{PetName: "Rex", PlanName: "Plano Premium", Description: "Mensalidade", AmountCents: 12050, DiscountCents: 2050},
		},
		PaymentMethod:     domain.MethodCreditCard,
		PaymentStatus:     domain.StatusApproved,
		TID:               "tid-500",
		AuthorizationCode: "auth-500",
		AmountCents:       10000,
		Currency:          "BRL",
		Installment: &domain.Installment{
			Period:  "2026-08",
			Number:  2,
			DueDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		},
		Status:    domain.ReceiptGenerated,
		CreatedAt: time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC),
	}

	data, err := renderer.Render(record)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "REC-2026-AB12CD34")
	assert.Contains(t, html, "Maria Souza")
	assert.Contains(t, html, "Rex")
	assert.Contains(t, html, "120,50")
	assert.Contains(t, html, "20,50")
	assert.Contains(t, html, "Total: <strong>100,00 BRL</strong>")
	assert.Contains(t, html, "29/08/2026 14:30")
	assert.Contains(t, html, "10/08/2026")
	assert.Contains(t, html, "tid-500")
}

func TestHTMLRenderer_OmitsEmptySections(t *testing.T) {
	renderer, err := NewHTMLRenderer()
	require.NoError(t, err)

	record := &domain.ReceiptRecord{
		Number:        "REC-2026-00000000",
		ClientName:    "João Lima",
		Items:         []domain.ReceiptItem{{PetName: "Mimi", PlanName: "Básico", AmountCents: 5000}},
		PaymentMethod: domain.MethodPix,
		Currency:      "BRL",
		CreatedAt:     time.Now().UTC(),
	}

	data, err := renderer.Render(record)
	require.NoError(t, err)
	html := string(data)

	assert.NotContains(t, html, "Parcela")
	assert.NotContains(t, html, "TID:")
	assert.NotContains(t, html, "Documento:")
}

func TestHTMLRenderer_EscapesClientInput(t *testing.T) {
	renderer, err := NewHTMLRenderer()
	require.NoError(t, err)

	record := &domain.ReceiptRecord{
		Number:        "REC-2026-11111111",
		ClientName:    `<script>alert("x")</script>`,
		Items:         []domain.ReceiptItem{{PetName: "Rex", PlanName: "Plano", AmountCents: 1000}},
		PaymentMethod: domain.MethodPix,
		CreatedAt:     time.Now().UTC(),
	}

	data, err := renderer.Render(record)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<script>")
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0,00", formatCents(0))
	assert.Equal(t, "0,05", formatCents(5))
	assert.Equal(t, "1,00", formatCents(100))
	assert.Equal(t, "150,00", formatCents(15000))
	assert.Equal(t, "-12,34", formatCents(-1234))
}
