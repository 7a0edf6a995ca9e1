package findings

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// minAmount is the smallest figure treated as money. Anything at or below it
// is a year fragment, a percentage or a count.
const minAmount = 999

var rxAmount = regexp.MustCompile(`[\d,]+`)

// MaxAmount returns the largest monetary figure in text, or 0 when none qualifies.
func MaxAmount(text string) int64 {
	var best int64
	for _, run := range rxAmount.FindAllString(text, -1) {
		digits := strings.ReplaceAll(run, ",", "")
		if digits == "" {
			continue
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		if n <= minAmount {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}

// DailyCost spreads a monthly amount over 30 days, rounding half away from zero.
func DailyCost(maxAmount int64) int64 {
	if maxAmount <= 0 {
		return 0
	}
	return int64(math.Round(float64(maxAmount) / 30))
}

// FormatAmount renders an amount with thousands separators, or "See details"
// when the amount is unknown.
func FormatAmount(currency string, amount int64) string {
	if amount <= 0 {
		return "See details"
	}
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if currency == "" {
		return b.String()
	}
	return fmt.Sprintf("%s %s", currency, b.String())
}
