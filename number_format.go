package tollzone

import (
	"math"
	"strconv"
	"strings"
)

// formatHalfUp prints v with fixed number of decimals rounding half up on the shortest decimal
// representation of v (the way the framework's formatter prints '%.Nf'), e.g. 0.625 gives "0.63" for 2 decimals
func formatHalfUp(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatDouble(v)
	}
	sign := ""
	if math.Signbit(v) {
		sign = "-"
	}
	intPart, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', -1, 64), ".")
	if len(frac) <= decimals {
		frac += strings.Repeat("0", decimals-len(frac))
		return sign + joinDecimal(intPart, frac)
	}
	digits := []byte(intPart + frac[:decimals])
	if frac[decimals] >= '5' {
		i := len(digits) - 1
		for ; i >= 0; i-- {
			if digits[i] != '9' {
				digits[i]++
				break
			}
			digits[i] = '0'
		}
		if i < 0 {
			digits = append([]byte{'1'}, digits...)
		}
	}
	split := len(digits) - decimals
	return sign + joinDecimal(string(digits[:split]), string(digits[split:]))
}

func joinDecimal(intPart, frac string) string {
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

// formatDouble prints number the way the framework prints doubles: shortest representation
// keeping '.0' for whole numbers, scientific notation ('1.0E-4', '1.2345E7') below 1e-3 and from 1e7
func formatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(v, 'E', -1, 64), "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	exp, _ := strconv.Atoi(exponent)
	return mantissa + "E" + strconv.Itoa(exp)
}
