package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrencyINR formats an amount in rupees with Indian digit grouping.
// Example: 1234567.5 -> "₹12,34,567.50", 2500 -> "₹2,500"
func FormatCurrencyINR(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	integer := cents / 100
	decimal := cents % 100

	digits := fmt.Sprintf("%d", integer)
	var groups []string
	// the last three digits, then pairs
	if len(digits) > 3 {
		groups = append(groups, digits[len(digits)-3:])
		digits = digits[:len(digits)-3]
		for len(digits) > 2 {
			groups = append([]string{digits[len(digits)-2:]}, groups...)
			digits = digits[:len(digits)-2]
		}
	}
	groups = append([]string{digits}, groups...)

	out := sign + "₹" + strings.Join(groups, ",")
	if decimal > 0 {
		out += fmt.Sprintf(".%02d", decimal)
	}
	return out
}
