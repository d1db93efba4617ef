package lineitem

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/noah-isme/pos-admin/internal/product"
)

var labelPrinter = message.NewPrinter(language.MustParse("es-AR"))

// ReferenceLabel renders the price reference shown next to a line, such as
// "$80 / kg" or "$30 / 100g".
func ReferenceLabel(unit product.Unit, price decimal.Decimal) string {
	return labelPrinter.Sprintf("$%v / %s", number.Decimal(price.InexactFloat64(), number.MaxFractionDigits(2)), unit.PriceBasis())
}

// Money formats an amount with two decimals for display.
func Money(amount decimal.Decimal) string {
	return labelPrinter.Sprintf("$%v", number.Decimal(amount.InexactFloat64(), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
