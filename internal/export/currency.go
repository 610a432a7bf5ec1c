package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.English)

// FormatAmount formats an amount in the given ISO 4217 currency. An
// unrecognized code falls back to a fixed "CODE 12.34" textual format
// deterministically rather than by intercepting a failure downstream.
func FormatAmount(code string, amount float64) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return fmt.Sprintf("%s %.2f", strings.ToUpper(strings.TrimSpace(code)), amount)
	}
	return currencyPrinter.Sprint(currency.Symbol(unit.Amount(amount)))
}
