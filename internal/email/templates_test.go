package email

import (
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₼0.00"},
		{15, "₼15.00"},
		{875, "₼875.00"},
		{1234.5, "₼1,234.50"},
		{1000000, "₼1,000,000.00"},
		{0.1 + 0.2, "₼0.30"},
		{-42.5, "-₼42.50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMoney(tt.amount))
		})
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body := BuildOrderConfirmationBody(OrderSummary{
		OrderID:        "0f8a1c2e-aaaa",
		FullName:       "Leyla <Aliyeva>",
		ProductName:    "Mid-Century Modern Sofa",
		ShippingMethod: "express",
		Total:          885,
	})

	assert.Contains(t, body, "0f8a1c2e-aaaa")
	assert.Contains(t, body, "Mid-Century Modern Sofa")
	assert.Contains(t, body, "₼885.00")
	assert.Contains(t, body, "Leyla &lt;Aliyeva&gt;")
	assert.NotContains(t, body, "<Aliyeva>")
	assert.NotContains(t, body, "%!")
}

func TestBuildNoticeBodies(t *testing.T) {
	n := SaleSummary{SaleID: "s1", Name: "Nigar", ProductName: "Oak Sideboard", Total: 420}

	accepted := BuildOfferAcceptedBody(n)
	assert.Contains(t, accepted, "accepted your offer")
	assert.Contains(t, accepted, "₼420.00")
	assert.NotContains(t, accepted, "%!")

	sold := BuildSaleNoticeBody(n)
	assert.Contains(t, sold, "Oak Sideboard")
	assert.NotContains(t, sold, "%!")
}

func TestService_SendOrderConfirmation(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	svc := NewService("mail.local", "1025", "noreply@example.com").WithSender(
		func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		})

	err := svc.SendOrderConfirmation("leyla@example.com", OrderSummary{OrderID: "0123456789abcdef", Total: 865})

	require.NoError(t, err)
	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"leyla@example.com"}, gotTo)
	headers, _, _ := strings.Cut(string(gotMsg), "\r\n\r\n")
	assert.Contains(t, headers, "Subject: Order confirmation #01234567")
	assert.Contains(t, headers, "To: leyla@example.com")
}
