package gateway

import (
	"time"

	"github.com/vetmais/payments/internal/domain"
)

// Wire types for the provider API. The create response nests a PascalCase
// Payment object; the query side has been observed answering both that shape
// and a flat camelCase one, so flattening handles both explicitly.

type saleRequest struct {
	MerchantOrderID string       `json:"MerchantOrderId"`
	Customer        saleCustomer `json:"Customer"`
	Payment         salePayment  `json:"Payment"`
}

type saleCustomer struct {
	Name         string `json:"Name"`
	Identity     string `json:"Identity,omitempty"`
	IdentityType string `json:"IdentityType,omitempty"`
	Email        string `json:"Email,omitempty"`
}

type salePayment struct {
	Type           string    `json:"Type"`
	Amount         int64     `json:"Amount"`
	Installments   int       `json:"Installments,omitempty"`
	Capture        *bool     `json:"Capture,omitempty"`
	SoftDescriptor string    `json:"SoftDescriptor,omitempty"`
	CreditCard     *saleCard `json:"CreditCard,omitempty"`
}

type saleCard struct {
	CardNumber     string `json:"CardNumber"`
	Holder         string `json:"Holder"`
	ExpirationDate string `json:"ExpirationDate"`
	SecurityCode   string `json:"SecurityCode"`
	Brand          string `json:"Brand,omitempty"`
	SaveCard       bool   `json:"SaveCard"`
}

type saleResponse struct {
	MerchantOrderID string      `json:"MerchantOrderId"`
	Payment         paymentNode `json:"Payment"`
}

type paymentNode struct {
	PaymentID         string `json:"PaymentId"`
	Status            int    `json:"Status"`
	ReturnCode        string `json:"ReturnCode"`
	ReturnMessage     string `json:"ReturnMessage"`
	TID               string `json:"Tid"`
	ProofOfSale       string `json:"ProofOfSale"`
	AuthorizationCode string `json:"AuthorizationCode"`
	Amount            int64  `json:"Amount"`
	CapturedAmount    int64  `json:"CapturedAmount"`
	ReceivedDate      string `json:"ReceivedDate"`
	CapturedDate      string `json:"CapturedDate"`
	Currency          string `json:"Currency"`
	Country           string `json:"Country"`
	QRCodeBase64Image string `json:"QrCodeBase64Image"`
	QRCodeString      string `json:"QrCodeString"`
}

type flatResponse struct {
	PaymentID         string `json:"paymentId"`
	Status            int    `json:"status"`
	ReturnCode        string `json:"returnCode"`
	ReturnMessage     string `json:"returnMessage"`
	TID               string `json:"tid"`
	ProofOfSale       string `json:"proofOfSale"`
	AuthorizationCode string `json:"authorizationCode"`
	Amount            int64  `json:"amount"`
	CapturedAmount    int64  `json:"capturedAmount"`
	ReceivedDate      string `json:"receivedDate"`
	CapturedDate      string `json:"capturedDate"`
	Currency          string `json:"currency"`
	Country           string `json:"country"`
	QRCodeBase64Image string `json:"qrCodeBase64Image"`
	QRCodeString      string `json:"qrCodeString"`
}

type providerError struct {
	Code    any    `json:"Code"`
	Message string `json:"Message"`
}

func (n paymentNode) toResult() *domain.PaymentResult {
	return &domain.PaymentResult{
		PaymentID:           n.PaymentID,
		Status:              MapStatus(n.Status),
		TID:                 n.TID,
		ProofOfSale:         n.ProofOfSale,
		AuthorizationCode:   n.AuthorizationCode,
		AmountCents:         n.Amount,
		CapturedAmountCents: n.CapturedAmount,
		CapturedAt:          parseProviderDate(n.CapturedDate),
		ReceivedAt:          parseProviderDate(n.ReceivedDate),
		Currency:            n.Currency,
		Country:             n.Country,
		ReturnCode:          n.ReturnCode,
		ReturnMessage:       n.ReturnMessage,
		QRCodeBase64Image:   n.QRCodeBase64Image,
		QRCodeString:        n.QRCodeString,
	}
}

func (f flatResponse) toResult() *domain.PaymentResult {
	return &domain.PaymentResult{
		PaymentID:           f.PaymentID,
		Status:              MapStatus(f.Status),
		TID:                 f.TID,
		ProofOfSale:         f.ProofOfSale,
		AuthorizationCode:   f.AuthorizationCode,
		AmountCents:         f.Amount,
		CapturedAmountCents: f.CapturedAmount,
		CapturedAt:          parseProviderDate(f.CapturedDate),
		ReceivedAt:          parseProviderDate(f.ReceivedDate),
		Currency:            f.Currency,
		Country:             f.Country,
		ReturnCode:          f.ReturnCode,
		ReturnMessage:       f.ReturnMessage,
		QRCodeBase64Image:   f.QRCodeBase64Image,
		QRCodeString:        f.QRCodeString,
	}
}

// parseProviderDate tolerates the provider's bare local timestamp as well as
// RFC3339. Unparseable dates flatten to nil rather than failing the call.
func parseProviderDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
