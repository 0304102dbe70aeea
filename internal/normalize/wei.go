package normalize

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// WeiDecimals is the fixed scale between wei and ether.
const WeiDecimals = 18

// decimalContext has enough precision for any uint256 amount scaled to cents.
var decimalContext = apd.BaseContext.WithPrecision(100)

// ParseWei returns raw as a canonical non-negative base-10 integer string.
// Empty, negative, fractional or non-numeric input yields "0".
func ParseWei(raw string) string {
	d, ok := parseWei(raw)
	if !ok {
		return "0"
	}
	return d.Text('f')
}

func parseWei(raw string) (*apd.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	d, _, err := apd.NewFromString(raw)
	if err != nil || d.Form != apd.Finite || d.Sign() < 0 {
		return nil, false
	}
	if d.IsZero() {
		return apd.New(0, 0), true
	}
	d.Reduce(d)
	if d.Exponent < 0 {
		return nil, false
	}
	// Expand 2E+18 back into plain digits.
	if d.Exponent > 0 {
		if _, err := decimalContext.Quantize(d, d, 0); err != nil {
			return nil, false
		}
	}
	return d, true
}

// Ether converts a wei amount into an exact ether decimal.
// Malformed input is treated as zero.
func Ether(wei string) *apd.Decimal {
	d, ok := parseWei(wei)
	if !ok {
		return apd.New(0, 0)
	}
	out := new(apd.Decimal).Set(d)
	out.Exponent -= WeiDecimals
	out.Reduce(out)
	return out
}

// EtherString returns the exact ether value of wei without trailing zeros.
func EtherString(wei string) string {
	return Ether(wei).Text('f')
}

// EtherFloat returns the ether value of wei as a float64 for charts and ratios.
func EtherFloat(wei string) float64 {
	f, err := Ether(wei).Float64()
	if err != nil {
		return 0
	}
	return f
}

// FormatEther rounds the ether value of wei half-up to the given number of decimals.
func FormatEther(wei string, decimals int) string {
	return round(Ether(wei), decimals)
}

// RoundDecimal rounds an exact decimal string half-up to the given number of
// decimals. Unparseable input is treated as zero.
func RoundDecimal(value string, decimals int) string {
	d, _, err := apd.NewFromString(strings.TrimSpace(value))
	if err != nil || d.Form != apd.Finite {
		d = apd.New(0, 0)
	}
	return round(d, decimals)
}

func round(d *apd.Decimal, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	out := new(apd.Decimal)
	if _, err := decimalContext.Quantize(out, d, -int32(decimals)); err != nil {
		return d.Text('f')
	}
	return out.Text('f')
}
