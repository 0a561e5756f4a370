package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// render prints v as indented JSON when --json is set and as a table
// otherwise
func (c *cli) render(v any, table func(w *tabwriter.Writer)) error {
	if c.asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	table(w)
	return w.Flush()
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func money(v float64) string {
	return "₼" + decimal.NewFromFloat(v).StringFixed(2)
}

func moneyDec(d decimal.Decimal) string {
	return "₼" + d.StringFixed(2)
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
