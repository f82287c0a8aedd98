package helpers

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatPrice renders a price with thousands separators and without
// trailing zeros: 139.50000000 -> 139.5, 1234 -> 1,234.
func FormatPrice(price decimal.Decimal) string {
	integer := price.Truncate(0)
	formatted := humanize.Comma(integer.IntPart())
	if integer.IsZero() && price.IsNegative() {
		formatted = "-" + formatted
	}

	fraction := strings.TrimRight(price.Sub(integer).Abs().String(), "0")
	if i := strings.Index(fraction, "."); i >= 0 && len(fraction) > i+1 {
		formatted += fraction[i:]
	}
	return formatted
}
