package pdf

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const dateLayout = "02/01/2006"

var printer = message.NewPrinter(language.Hebrew)

// formatMoney renders an amount with the currency symbol, grouped thousands
// and exactly two decimals, e.g. ₪12,345.50.
func formatMoney(symbol string, d decimal.Decimal) string {
	d = d.Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	return sign + symbol + printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// formatQuantity renders a quantity with grouping and only the decimals it has.
func formatQuantity(d decimal.Decimal) string {
	return printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(dateLayout)
}
