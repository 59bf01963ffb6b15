// Package domain defines the core models for the payment and receipt subsystem.
package domain

import "strings"

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodPix        PaymentMethod = "PIX"
)

// TaxIDType distinguishes personal (CPF) from corporate (CNPJ) tax ids.
type TaxIDType string

const (
	TaxIDCPF  TaxIDType = "CPF"
	TaxIDCNPJ TaxIDType = "CNPJ"
)

// TaxID is a Brazilian national tax identifier.
type TaxID struct {
	Number string
	Type   TaxIDType
}

// Digits returns the tax id stripped of formatting characters.
func (t TaxID) Digits() string {
	var b strings.Builder
	for _, r := range t.Number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate checks the tax id against its checksum digits.
func (t TaxID) Validate() error {
	digits := t.Digits()
	switch t.Type {
	case TaxIDCPF:
		if !validCPF(digits) {
			return NewValidationError("customer.tax_id", "invalid CPF checksum")
		}
	case TaxIDCNPJ:
		if !validCNPJ(digits) {
			return NewValidationError("customer.tax_id", "invalid CNPJ checksum")
		}
	default:
		return NewValidationError("customer.tax_id_type", "tax id type must be CPF or CNPJ")
	}
	return nil
}

func validCPF(digits string) bool {
	if len(digits) != 11 || allSame(digits) {
		return false
	}
	for _, pos := range []int{9, 10} {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(digits[i]-'0') * (pos + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != int(digits[pos]-'0') {
			return false
		}
	}
	return true
}

func validCNPJ(digits string) bool {
	if len(digits) != 14 || allSame(digits) {
		return false
	}
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for _, pos := range []int{12, 13} {
		sum := 0
		offset := len(weights) - pos
		for i := 0; i < pos; i++ {
			sum += int(digits[i]-'0') * weights[offset+i]
		}
		check := sum % 11
		if check < 2 {
			check = 0
		} else {
			check = 11 - check
		}
		if check != int(digits[pos]-'0') {
			return false
		}
	}
	return true
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// Customer is the payer identity attached to a payment request.
type Customer struct {
	Name  string
	Email string
	TaxID *TaxID
}

// CreditCard carries the raw card data for a credit card sale.
// Expiry is accepted as MM/YY or MM/YYYY and normalized before hitting the wire.
type CreditCard struct {
	Number   string
	Holder   string
	Expiry   string
	CVV      string
	Brand    string
	SaveCard bool
}

// PaymentRequest is a request to create a sale with the provider.
// Amount is always integer minor units (cents), never floating point.
type PaymentRequest struct {
	MerchantOrderID string
	AmountCents     int64
	Currency        string
	Method          PaymentMethod
	Customer        Customer
	Card            *CreditCard
	Installments    int
	Capture         bool
	SoftDescriptor  string
}

// Validate enforces the method-independent invariants. Card field shape is
// checked by the gateway before any network call.
func (r *PaymentRequest) Validate() error {
	if r.MerchantOrderID == "" {
		return NewValidationError("merchant_order_id", "merchant order id is required")
	}
	if r.AmountCents <= 0 {
		return NewValidationError("amount", "amount must be a positive number of cents")
	}
	if r.Customer.Name == "" {
		return NewValidationError("customer.name", "customer name is required")
	}
	switch r.Method {
	case MethodCreditCard:
		if r.Card == nil {
			return NewValidationError("card", "card data is required for credit card payments")
		}
	case MethodPix:
		if r.Customer.TaxID == nil {
			return NewValidationError("customer.tax_id", "tax id is required for PIX payments")
		}
	default:
		return NewValidationError("method", "unsupported payment method")
	}
	if r.Customer.TaxID != nil {
		if err := r.Customer.TaxID.Validate(); err != nil {
			return err
		}
	}
	return nil
}
