package dashboard

import (
	"strings"

	"github.com/shopspring/decimal"
)

// feeDecimals is the precision of the fee-currency balance column.
const feeDecimals = 5

// NumberFormat renders decimals with locale separators.
type NumberFormat struct {
	Decimals  int
	Thousands string
	Decimal   string
}

// FormatNav rounds half away from zero to Decimals places and groups the
// integer digits, e.g. 10250.4568 -> "10.250,4568".
func (f NumberFormat) FormatNav(d decimal.Decimal) string {
	fixed := d.Round(int32(f.Decimals)).StringFixed(int32(f.Decimals))

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	if sign == "-" && strings.Trim(intPart+fracPart, "0") == "" {
		sign = ""
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(groupDigits(intPart, f.Thousands))
	if fracPart != "" {
		b.WriteString(f.Decimal)
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatNullNav formats an optional value, or "-" when absent.
func (f NumberFormat) FormatNullNav(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return f.FormatNav(d.Decimal)
}

// FormatFee renders "<token> <balance> (USD <usd>)", dropping absent parts,
// or "-" when neither balance is known.
func FormatFee(token *string, balance, usd decimal.NullDecimal) string {
	if !balance.Valid && !usd.Valid {
		return "-"
	}

	var parts []string
	if token != nil && strings.TrimSpace(*token) != "" {
		parts = append(parts, strings.TrimSpace(*token))
	}
	if balance.Valid {
		parts = append(parts, balance.Decimal.Round(feeDecimals).String())
	}
	out := strings.Join(parts, " ")
	if usd.Valid {
		out += " (USD " + usd.Decimal.Round(0).String() + ")"
	}
	return strings.TrimSpace(out)
}

func groupDigits(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
