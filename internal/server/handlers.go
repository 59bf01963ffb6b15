// Package server exposes the payment and receipt operations over HTTP to the
// surrounding clinic application.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vetmais/payments/internal/domain"
	"github.com/vetmais/payments/internal/gateway"
	"github.com/vetmais/payments/internal/receipt"
)

type Handlers struct {
	gateway   *gateway.Client
	generator *receipt.Generator
	store     receipt.Store
	logger    *slog.Logger
}

func NewHandlers(gw *gateway.Client, generator *receipt.Generator, store receipt.Store, logger *slog.Logger) *Handlers {
	return &Handlers{
		gateway:   gw,
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sales", h.CreateCardSale)
	mux.HandleFunc("POST /v1/sales/pix", h.CreatePixSale)
	mux.HandleFunc("GET /v1/sales/{id}", h.QuerySale)
	mux.HandleFunc("PUT /v1/sales/{id}/capture", h.CaptureSale)
	mux.HandleFunc("PUT /v1/sales/{id}/void", h.VoidSale)
	mux.HandleFunc("POST /v1/receipts", h.GenerateReceipt)
	mux.HandleFunc("GET /v1/receipts", h.ListReceipts)
	mux.HandleFunc("GET /v1/receipts/{id}/document", h.DownloadReceipt)
	return mux
}

func (h *Handlers) CreateCardSale(w http.ResponseWriter, r *http.Request) {
	var dto saleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope("BAD_JSON", "request body is not valid JSON"))
		return
	}

	result, err := h.gateway.CreateCreditCardPayment(r.Context(), dto.toDomain(domain.MethodCreditCard))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toResultDTO(result))
}

func (h *Handlers) CreatePixSale(w http.ResponseWriter, r *http.Request) {
	var dto saleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope("BAD_JSON", "request body is not valid JSON"))
		return
	}

	result, err := h.gateway.CreatePixPayment(r.Context(), dto.toDomain(domain.MethodPix))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toResultDTO(result))
}

func (h *Handlers) QuerySale(w http.ResponseWriter, r *http.Request) {
	result, err := h.gateway.QueryPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toResultDTO(result))
}

func (h *Handlers) CaptureSale(w http.ResponseWriter, r *http.Request) {
	amount, err := optionalAmount(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.gateway.CapturePayment(r.Context(), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toResultDTO(result))
}

func (h *Handlers) VoidSale(w http.ResponseWriter, r *http.Request) {
	amount, err := optionalAmount(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.gateway.CancelPayment(r.Context(), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toResultDTO(result))
}

func (h *Handlers) GenerateReceipt(w http.ResponseWriter, r *http.Request) {
	var dto generateReceiptDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope("BAD_JSON", "request body is not valid JSON"))
		return
	}

	record, err := h.generator.Generate(r.Context(), dto.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toReceiptDTO(record))
}

func (h *Handlers) ListReceipts(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, errorEnvelope("VALIDATION_ERROR", "email query parameter is required"))
		return
	}

	records, err := h.store.ListByClientEmail(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]receiptDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toReceiptDTO(record))
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handlers) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope("VALIDATION_ERROR", "receipt id must be a UUID"))
		return
	}

	record, data, err := h.generator.Document(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.generator.MarkDownloaded(r.Context(), id); err != nil {
		h.logger.Warn("could not mark receipt downloaded", "receipt_id", id, "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+record.Number+`.html"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func optionalAmount(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("amount")
	if raw == "" {
		return nil, nil
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError("amount", "amount must be an integer number of cents")
	}
	return &amount, nil
}

// --- wire DTOs ---

type taxIDDTO struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type customerDTO struct {
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	TaxID *taxIDDTO `json:"tax_id,omitempty"`
}

type cardDTO struct {
	Number   string `json:"number"`
	Holder   string `json:"holder"`
	Expiry   string `json:"expiry"`
	CVV      string `json:"cvv"`
	Brand    string `json:"brand,omitempty"`
	SaveCard bool   `json:"save_card,omitempty"`
}

type saleDTO struct {
	MerchantOrderID string      `json:"merchant_order_id"`
	AmountCents     int64       `json:"amount_cents"`
	Currency        string      `json:"currency,omitempty"`
	Installments    int         `json:"installments,omitempty"`
	Capture         bool        `json:"capture,omitempty"`
	SoftDescriptor  string      `json:"soft_descriptor,omitempty"`
	Customer        customerDTO `json:"customer"`
	Card            *cardDTO    `json:"card,omitempty"`
}

func (d saleDTO) toDomain(method domain.PaymentMethod) domain.PaymentRequest {
	req := domain.PaymentRequest{
		MerchantOrderID: d.MerchantOrderID,
		AmountCents:     d.AmountCents,
		Currency:        d.Currency,
		Method:          method,
		Installments:    d.Installments,
		Capture:         d.Capture,
		SoftDescriptor:  d.SoftDescriptor,
		Customer: domain.Customer{
			Name:  d.Customer.Name,
			Email: d.Customer.Email,
		},
	}
	if d.Customer.TaxID != nil {
		req.Customer.TaxID = &domain.TaxID{
			Number: d.Customer.TaxID.Number,
			Type:   domain.TaxIDType(d.Customer.TaxID.Type),
		}
	}
	if d.Card != nil {
		req.Card = &domain.CreditCard{
			Number:   d.Card.Number,
			Holder:   d.Card.Holder,
			Expiry:   d.Card.Expiry,
			CVV:      d.Card.CVV,
			Brand:    d.Card.Brand,
			SaveCard: d.Card.SaveCard,
		}
	}
	return req
}

type resultDTO struct {
	PaymentID           string     `json:"payment_id"`
	Status              string     `json:"status"`
	TID                 string     `json:"tid,omitempty"`
	ProofOfSale         string     `json:"proof_of_sale,omitempty"`
	AuthorizationCode   string     `json:"authorization_code,omitempty"`
	AmountCents         int64      `json:"amount_cents"`
	CapturedAmountCents int64      `json:"captured_amount_cents,omitempty"`
	CapturedAt          *time.Time `json:"captured_at,omitempty"`
	ReceivedAt          *time.Time `json:"received_at,omitempty"`
	Currency            string     `json:"currency,omitempty"`
	ReturnCode          string     `json:"return_code,omitempty"`
	ReturnMessage       string     `json:"return_message,omitempty"`
	QRCodeBase64Image   string     `json:"qr_code_base64_image,omitempty"`
	QRCodeString        string     `json:"qr_code_string,omitempty"`
}

func toResultDTO(result *domain.PaymentResult) resultDTO {
	return resultDTO{
		PaymentID:           result.PaymentID,
		Status:              string(result.Status),
		TID:                 result.TID,
		ProofOfSale:         result.ProofOfSale,
		AuthorizationCode:   result.AuthorizationCode,
		AmountCents:         result.AmountCents,
		CapturedAmountCents: result.CapturedAmountCents,
		CapturedAt:          result.CapturedAt,
		ReceivedAt:          result.ReceivedAt,
		Currency:            result.Currency,
		ReturnCode:          result.ReturnCode,
		ReturnMessage:       result.ReturnMessage,
		QRCodeBase64Image:   result.QRCodeBase64Image,
		QRCodeString:        result.QRCodeString,
	}
}

type itemDTO struct {
	PetName       string `json:"pet_name"`
	PlanName      string `json:"plan_name"`
	Description   string `json:"description,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
}

type installmentDTO struct {
	Period  string    `json:"period"`
	Number  int       `json:"number"`
	DueDate time.Time `json:"due_date"`
}

type generateReceiptDTO struct {
	PaymentID   string          `json:"payment_id"`
	Method      string          `json:"method"`
	ClientName  string          `json:"client_name"`
	ClientEmail string          `json:"client_email,omitempty"`
	ClientTaxID string          `json:"client_tax_id,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	Items       []itemDTO       `json:"items"`
	Installment *installmentDTO `json:"installment,omitempty"`
}

func (d generateReceiptDTO) toRequest() receipt.GenerateRequest {
	req := receipt.GenerateRequest{
		PaymentID:   d.PaymentID,
		Method:      domain.PaymentMethod(d.Method),
		ClientName:  d.ClientName,
		ClientEmail: d.ClientEmail,
		ClientTaxID: d.ClientTaxID,
		Currency:    d.Currency,
	}
	for _, item := range d.Items {
		req.Items = append(req.Items, domain.ReceiptItem(item))
	}
	if d.Installment != nil {
		installment := domain.Installment(*d.Installment)
		req.Installment = &installment
	}
	return req
}

type receiptDTO struct {
	ID            string    `json:"id"`
	PaymentID     string    `json:"payment_id"`
	Number        string    `json:"number"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	DocumentKey   string    `json:"document_key"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toReceiptDTO(record *domain.ReceiptRecord) receiptDTO {
	return receiptDTO{
		ID:            record.ID.String(),
		PaymentID:     record.PaymentID,
		Number:        record.Number,
		ClientName:    record.ClientName,
		ClientEmail:   record.ClientEmail,
		PaymentMethod: string(record.PaymentMethod),
		PaymentStatus: string(record.PaymentStatus),
		AmountCents:   record.AmountCents,
		Currency:      record.Currency,
		DocumentKey:   record.DocumentKey,
		Status:        string(record.Status),
		CreatedAt:     record.CreatedAt,
	}
}
