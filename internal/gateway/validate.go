package gateway

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vetmais/payments/internal/domain"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{13,19}$`)
	cvvPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2}|[0-9]{4})$`)
)

// validateCard checks the card fields locally, before any network call, and
// returns the expiry normalized to MM/YYYY.
func validateCard(card *domain.CreditCard, now time.Time) (string, error) {
	number := strings.ReplaceAll(strings.ReplaceAll(card.Number, " ", ""), "-", "")
	if !cardNumberPattern.MatchString(number) {
		return "", domain.NewValidationError("card.number", "card number must be 13 to 19 digits")
	}
	if strings.TrimSpace(card.Holder) == "" {
		return "", domain.NewValidationError("card.holder", "card holder is required")
	}
	if !cvvPattern.MatchString(card.CVV) {
		return "", domain.NewValidationError("card.cvv", "security code must be 3 or 4 digits")
	}
	expiry, err := normalizeExpiry(card.Expiry, now)
	if err != nil {
		return "", err
	}
	return expiry, nil
}

// normalizeExpiry accepts MM/YY or MM/YYYY and returns MM/YYYY, rejecting
// dates already past. A card expires at the end of its expiry month.
func normalizeExpiry(raw string, now time.Time) (string, error) {
	match := expiryPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return "", domain.NewValidationError("card.expiry", "expiry must be MM/YY or MM/YYYY")
	}

	month, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[2])
	if year < 100 {
		year += 2000
	}

	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !endOfMonth.After(now.UTC()) {
		return "", domain.NewValidationError("card.expiry", "card is expired")
	}

	return fmt.Sprintf("%02d/%04d", month, year), nil
}

// cardDigits returns the PAN stripped of separators for the wire payload.
func cardDigits(number string) string {
	return strings.ReplaceAll(strings.ReplaceAll(number, " ", ""), "-", "")
}
