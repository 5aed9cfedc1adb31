package agent

import (
	"fmt"
	"strconv"
)

// Days renders a whole-day count, "1 day" or "n days".
func Days(n int) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d day", n)
	}
	return fmt.Sprintf("%d days", n)
}

// AED renders an amount without trailing zeros, e.g. "200 AED".
func AED(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64) + " AED"
}
