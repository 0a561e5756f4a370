package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderSummary is what an order confirmation shows
type OrderSummary struct {
	OrderID        string
	FullName       string
	ProductName    string
	ShippingMethod string
	Total          float64
}

// SaleSummary is what offer and sale notices show
type SaleSummary struct {
	SaleID      string
	Name        string
	ProductName string
	Total       float64
}

const layout = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #3f7d58 0%%, #a4c38a 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. Reply to it if you need help.
		</p>
	</div>
</body>
</html>`

func page(title, content string) string {
	return fmt.Sprintf(layout, html.EscapeString(title), content)
}

// BuildOrderConfirmationBody builds the HTML body for an order confirmation
func BuildOrderConfirmationBody(o OrderSummary) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Hi %s, thank you for your order.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s delivery</td>
			</tr>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #3f7d58; margin-left: 10px;">%s</span>
		</div>`,
		html.EscapeString(o.FullName),
		html.EscapeString(o.OrderID),
		html.EscapeString(o.ProductName),
		html.EscapeString(o.ShippingMethod),
		formatMoney(o.Total),
	)
	return page("Thank you for your order", content)
}

// BuildOfferAcceptedBody builds the HTML body sent to a buyer whose offer
// was accepted
func BuildOfferAcceptedBody(n SaleSummary) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Hi %s, the seller accepted your offer for <strong>%s</strong>.</p>
		<p>Agreed price: <strong>%s</strong>. The seller will contact you to arrange delivery.</p>`,
		html.EscapeString(n.Name),
		html.EscapeString(n.ProductName),
		formatMoney(n.Total),
	)
	return page("Your offer was accepted", content)
}

// BuildSaleNoticeBody builds the HTML body sent to a seller whose listing
// was bought
func BuildSaleNoticeBody(n SaleSummary) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Hi %s, <strong>%s</strong> has been bought.</p>
		<p>Sale total: <strong>%s</strong>. Confirm the sale from your dashboard to start delivery.</p>`,
		html.EscapeString(n.Name),
		html.EscapeString(n.ProductName),
		formatMoney(n.Total),
	)
	return page("You made a sale", content)
}

// formatMoney renders an amount in manat with comma separators and two
// decimals, e.g. 1234.5 becomes "₼1,234.50"
func formatMoney(amount float64) string {
	str := decimal.NewFromFloat(amount).Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(str, ".")

	var result strings.Builder
	if amount < 0 {
		result.WriteString("-")
	}
	result.WriteString("₼")

	remainder := len(whole) % 3
	if remainder > 0 {
		result.WriteString(whole[:remainder])
	}
	for i := remainder; i < len(whole); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(whole[i : i+3])
	}

	result.WriteString(".")
	result.WriteString(frac)
	return result.String()
}
