package gateway

import "github.com/vetmais/payments/internal/domain"

// Provider numeric status codes, shared by the create and query responses.
const (
	providerStatusNotFinished      = 0
	providerStatusAuthorized       = 1
	providerStatusPaymentConfirmed = 2
	providerStatusDenied           = 3
	providerStatusVoided           = 10
	providerStatusRefunded         = 11
	providerStatusPending          = 12
	providerStatusAborted          = 13
	providerStatusScheduled        = 20
)

// MapStatus translates a provider status code into the internal enum. The
// mapping is total: unknown codes degrade to Pending, which is safe to
// re-check, instead of failing the caller.
func MapStatus(code int) domain.PaymentStatus {
	switch code {
	case providerStatusPaymentConfirmed:
		return domain.StatusApproved
	case providerStatusDenied, providerStatusAborted:
		return domain.StatusDeclined
	case providerStatusVoided:
		return domain.StatusCancelled
	case providerStatusRefunded:
		return domain.StatusRefunded
	case providerStatusNotFinished, providerStatusAuthorized,
		providerStatusPending, providerStatusScheduled:
		return domain.StatusPending
	default:
		return domain.StatusPending
	}
}
