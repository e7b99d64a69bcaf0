package service

import (
	"strings"
)

// minorUnits converts a decimal price string to minor currency units using
// the given exponent (USD -> 2). The conversion must be exact: any fractional
// part longer than the exponent, or a non-numeric price, fails.
func minorUnits(price string, exponent int) (int64, bool) {
	price = strings.TrimSpace(price)
	if price == "" || exponent < 0 {
		return 0, false
	}

	whole := price
	frac := ""
	if idx := strings.IndexByte(price, '.'); idx >= 0 {
		whole = price[:idx]
		frac = price[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if strings.HasPrefix(whole, "-") {
		return 0, false
	}
	if !digitsOnly(whole) || (frac != "" && !digitsOnly(frac)) {
		return 0, false
	}

	// more precision than the currency supports
	if len(frac) > exponent {
		if strings.Trim(frac[exponent:], "0") != "" {
			return 0, false
		}
		frac = frac[:exponent]
	}
	for len(frac) < exponent {
		frac += "0"
	}

	var amount int64
	for _, r := range whole + frac {
		digit := int64(r - '0')
		if amount > (1<<62)/10 {
			return 0, false
		}
		amount = amount*10 + digit
	}
	return amount, true
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
