// Package gateway implements the HTTP client for the card/PIX payment
// provider, including local validation, rate limiting, retry and the
// normalization of the provider's inconsistent response shapes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vetmais/payments/internal/config"
	"github.com/vetmais/payments/internal/domain"
)

// providerKey is the rate limiter key for the whole provider integration.
const providerKey = "provider"

type Client struct {
	apiBase     string
	queryBase   string
	merchantID  string
	merchantKey string
	timeout     time.Duration
	httpClient  *http.Client
	executor    *RetryExecutor
	policy      RetryPolicy
	logger      *slog.Logger

	now func() time.Time
}

func NewClient(cfg config.ProviderConfig, retryCfg config.RetryConfig, executor *RetryExecutor, logger *slog.Logger) *Client {
	return &Client{
		apiBase:     strings.TrimRight(cfg.APIBaseURL, "/"),
		queryBase:   strings.TrimRight(cfg.QueryBaseURL, "/"),
		merchantID:  cfg.MerchantID,
		merchantKey: cfg.MerchantKey,
		timeout:     cfg.RequestTimeout,
		httpClient:  &http.Client{},
		executor:    executor,
		policy: RetryPolicy{
			MaxAttempts: retryCfg.MaxAttempts,
			BaseDelay:   retryCfg.BaseDelay,
			MaxDelay:    retryCfg.MaxDelay,
		},
		logger: logger,
		now:    time.Now,
	}
}

// CreateCreditCardPayment validates the card fields locally and creates a
// credit card sale with the provider.
func (c *Client) CreateCreditCardPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	expiry, err := validateCard(req.Card, c.now())
	if err != nil {
		return nil, err
	}

	capture := req.Capture
	installments := req.Installments
	if installments < 1 {
		installments = 1
	}
	body := saleRequest{
		MerchantOrderID: req.MerchantOrderID,
		Customer:        buildCustomer(req.Customer),
		Payment: salePayment{
			Type:           "CreditCard",
			Amount:         req.AmountCents,
			Installments:   installments,
			Capture:        &capture,
			SoftDescriptor: req.SoftDescriptor,
			CreditCard: &saleCard{
				CardNumber:     cardDigits(req.Card.Number),
				Holder:         req.Card.Holder,
				ExpirationDate: expiry,
				SecurityCode:   req.Card.CVV,
				Brand:          req.Card.Brand,
				SaveCard:       req.Card.SaveCard,
			},
		},
	}

	correlationID := uuid.NewString()
	c.logger.Info("creating credit card payment",
		"correlation_id", correlationID,
		"merchant_order_id", req.MerchantOrderID,
		"amount_cents", req.AmountCents,
	)

	resp, err := Execute(ctx, c.executor, providerKey, c.policy, correlationID,
		func(ctx context.Context) (*saleResponse, error) {
			return send[saleResponse](c, ctx, http.MethodPost, c.apiBase+"/1/sales", &body, correlationID)
		})
	if err != nil {
		return nil, err
	}
	return resp.Payment.toResult(), nil
}

// CreatePixPayment creates a PIX sale. A valid tax id is mandatory for this
// method; the QR payload fields come back on the normalized result.
func (c *Client) CreatePixPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := saleRequest{
		MerchantOrderID: req.MerchantOrderID,
		Customer:        buildCustomer(req.Customer),
		Payment: salePayment{
			Type:   "Pix",
			Amount: req.AmountCents,
		},
	}

	correlationID := uuid.NewString()
	c.logger.Info("creating pix payment",
		"correlation_id", correlationID,
		"merchant_order_id", req.MerchantOrderID,
		"amount_cents", req.AmountCents,
	)

	resp, err := Execute(ctx, c.executor, providerKey, c.policy, correlationID,
		func(ctx context.Context) (*saleResponse, error) {
			return send[saleResponse](c, ctx, http.MethodPost, c.apiBase+"/1/sales", &body, correlationID)
		})
	if err != nil {
		return nil, err
	}
	return resp.Payment.toResult(), nil
}

// QueryPayment fetches the authoritative transaction state from the provider's
// read side, tolerating both response shapes the query endpoint is known to
// answer with.
func (c *Client) QueryPayment(ctx context.Context, paymentID string) (*domain.PaymentResult, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, domain.NewValidationError("payment_id", "payment id is required")
	}

	correlationID := uuid.NewString()
	endpoint := c.queryBase + "/1/sales/" + url.PathEscape(paymentID)

	raw, err := Execute(ctx, c.executor, providerKey, c.policy, correlationID,
		func(ctx context.Context) (*json.RawMessage, error) {
			return send[json.RawMessage](c, ctx, http.MethodGet, endpoint, nil, correlationID)
		})
	if err != nil {
		return nil, err
	}
	return flattenQuery(*raw)
}

// CapturePayment captures a previously authorized sale, optionally partial.
func (c *Client) CapturePayment(ctx context.Context, paymentID string, amountCents *int64) (*domain.PaymentResult, error) {
	return c.saleAction(ctx, paymentID, "capture", amountCents)
}

// CancelPayment voids a sale, optionally partial.
func (c *Client) CancelPayment(ctx context.Context, paymentID string, amountCents *int64) (*domain.PaymentResult, error) {
	return c.saleAction(ctx, paymentID, "void", amountCents)
}

func (c *Client) saleAction(ctx context.Context, paymentID, action string, amountCents *int64) (*domain.PaymentResult, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, domain.NewValidationError("payment_id", "payment id is required")
	}
	if amountCents != nil && *amountCents <= 0 {
		return nil, domain.NewValidationError("amount", "amount must be a positive number of cents")
	}

	endpoint := fmt.Sprintf("%s/1/sales/%s/%s", c.apiBase, url.PathEscape(paymentID), action)
	if amountCents != nil {
		endpoint = fmt.Sprintf("%s?amount=%d", endpoint, *amountCents)
	}

	correlationID := uuid.NewString()
	c.logger.Info("requesting sale "+action,
		"correlation_id", correlationID,
		"payment_id", paymentID,
	)

	node, err := Execute(ctx, c.executor, providerKey, c.policy, correlationID,
		func(ctx context.Context) (*paymentNode, error) {
			return send[paymentNode](c, ctx, http.MethodPut, endpoint, nil, correlationID)
		})
	if err != nil {
		return nil, err
	}

	result := node.toResult()
	if result.PaymentID == "" {
		result.PaymentID = paymentID
	}
	return result, nil
}

func buildCustomer(customer domain.Customer) saleCustomer {
	out := saleCustomer{
		Name:  customer.Name,
		Email: customer.Email,
	}
	if customer.TaxID != nil {
		out.Identity = customer.TaxID.Digits()
		out.IdentityType = string(customer.TaxID.Type)
	}
	return out
}

// flattenQuery collapses either observed query shape into the normalized
// result: wrapped PascalCase first, flat camelCase second.
func flattenQuery(raw []byte) (*domain.PaymentResult, error) {
	var wrapped saleResponse
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Payment.PaymentID != "" {
		return wrapped.Payment.toResult(), nil
	}

	var flat flatResponse
	if err := json.Unmarshal(raw, &flat); err == nil && flat.PaymentID != "" {
		return flat.toResult(), nil
	}

	return nil, &domain.GatewayError{
		StatusCode: http.StatusBadGateway,
		Code:       "unexpected_shape",
		Message:    "query response did not match any known provider shape",
	}
}

func send[Resp any](c *Client, ctx context.Context, method, endpoint string, reqBody any, correlationID string) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("MerchantId", c.merchantID)
	httpReq.Header.Set("MerchantKey", c.merchantKey)
	httpReq.Header.Set("RequestId", correlationID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &domain.TimeoutError{Operation: method + " " + httpReq.URL.Path}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("provider request failed: %s", Sanitize(err.Error()))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading provider response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &domain.AuthError{Message: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &domain.NotFoundError{Resource: "payment", ID: httpReq.URL.Path}
	case resp.StatusCode >= 400:
		code, message := parseProviderErrors(payload)
		return nil, &domain.GatewayError{
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    Sanitize(message),
		}
	}

	var out Resp
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, fmt.Errorf("error decoding provider response: %w", err)
		}
	}
	return &out, nil
}

// parseProviderErrors handles the provider's error body, which may be a list
// of {Code, Message} objects or a single one.
func parseProviderErrors(payload []byte) (code, message string) {
	var list []providerError
	if err := json.Unmarshal(payload, &list); err == nil && len(list) > 0 {
		return fmt.Sprint(list[0].Code), list[0].Message
	}

	var single providerError
	if err := json.Unmarshal(payload, &single); err == nil && single.Message != "" {
		return fmt.Sprint(single.Code), single.Message
	}

	text := strings.TrimSpace(string(payload))
	if len(text) > 200 {
		text = text[:200]
	}
	return "provider_error", text
}
