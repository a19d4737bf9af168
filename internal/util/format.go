package util

import (
	"fmt"
	"strings"
)

// FormatSize renders a byte count for humans: exact multiples print without
// decimals, everything else truncates to at most three decimals.
func FormatSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	div := int64(1024)
	exp := 0
	for size/div >= 1024 && exp < len(units)-1 {
		div *= 1024
		exp++
	}

	whole := size / div
	rem := size % div
	if rem == 0 {
		return fmt.Sprintf("%d %s", whole, units[exp])
	}

	// Truncate, don't round: 1023.9995 KB is still not 1 MB.
	thousandths := rem * 1000 / div
	s := strings.TrimRight(fmt.Sprintf("%d.%03d", whole, thousandths), "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s + " " + units[exp]
}
