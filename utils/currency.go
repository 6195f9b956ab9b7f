package utils

import (
	"fmt"
	"strings"
)

// FormatPrice renders an amount the way the displays print it: yuan
// sign, no trailing zeros. Example: 38 -> "¥38", 12.5 -> "¥12.5".
func FormatPrice(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		s = "0"
	}
	return "¥" + s
}
