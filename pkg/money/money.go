package money

import "fmt"

// MinorUnitsPerUnit is the number of minor currency units (cents) per whole unit.
const MinorUnitsPerUnit = 100

// FormatMinorUnits renders a minor-unit amount (e.g. Stripe's amount_total in
// cents) as a dollar string with exactly two decimals: 1 -> "$0.01",
// 123456 -> "$1234.56". No thousands separators.
func FormatMinorUnits(minor int64) string {
	return fmt.Sprintf("$%.2f", float64(minor)/MinorUnitsPerUnit)
}

// ToMinorUnits converts a whole-unit amount to minor units, rounding to the
// nearest cent.
func ToMinorUnits(amount float64) int64 {
	return int64(amount*MinorUnitsPerUnit + 0.5)
}
