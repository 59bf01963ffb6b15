package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"bare pan",
			"request failed for card 4111111111111111",
			"request failed for card [REDACTED-PAN]",
		},
		{
			"pan with separators",
			"card 4111 1111-1111 1111 declined",
			"card [REDACTED-PAN] declined",
		},
		{
			"card number json field",
			`{"CardNumber":"4111111111111111","Holder":"MARIA"}`,
			`{"CardNumber":"[REDACTED]","Holder":"MARIA"}`,
		},
		{
			"security code json field",
			`{"SecurityCode":"123"}`,
			`{"SecurityCode":"[REDACTED]"}`,
		},
		{
			"merchant key json field",
			`{"MerchantKey":"super-secret-key"}`,
			`{"MerchantKey":"[REDACTED]"}`,
		},
		{
			"clean text untouched",
			"order order-2026-001 amount 15000",
			"order order-2026-001 amount 15000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}
