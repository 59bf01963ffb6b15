package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vetmais/payments/internal/domain"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		code int
		want domain.PaymentStatus
	}{
		{0, domain.StatusPending},
		{1, domain.StatusPending},
		{2, domain.StatusApproved},
		{3, domain.StatusDeclined},
		{10, domain.StatusCancelled},
		{11, domain.StatusRefunded},
		{12, domain.StatusPending},
		{13, domain.StatusDeclined},
		{20, domain.StatusPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatus(tt.code), "code %d", tt.code)
	}
}

// Unknown codes degrade to Pending rather than erroring; a pending record can
// always be re-queried later.
func TestMapStatus_UnknownCodesDegradeToPending(t *testing.T) {
	for _, code := range []int{-1, 4, 5, 99, 1000} {
		assert.Equal(t, domain.StatusPending, MapStatus(code), "code %d", code)
	}
}
