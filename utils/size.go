package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a buffer or text size in bytes
type ByteSize int64

const (
	Byte ByteSize = 1
	KB   ByteSize = 1024 * Byte
	MB   ByteSize = 1024 * KB
	GB   ByteSize = 1024 * MB
)

// String returns a human-readable representation of the size
func (s ByteSize) String() string {
	if s <= 0 {
		return "0B"
	}

	formatValue := func(val float64, unit string) string {
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f%s", val, unit)
		}
		return fmt.Sprintf("%.2f%s", val, unit)
	}

	switch {
	case s >= GB:
		return formatValue(float64(s)/float64(GB), "G")
	case s >= MB:
		return formatValue(float64(s)/float64(MB), "M")
	case s >= KB:
		return formatValue(float64(s)/float64(KB), "K")
	default:
		return fmt.Sprintf("%dB", s)
	}
}

// ParseByteSize parses a size like "512", "64K" or "1M"
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return 0, fmt.Errorf("empty size string")
	}

	multiplier := Byte
	valueStr := s[:len(s)-1]
	switch strings.ToUpper(s[len(s)-1:]) {
	case "G":
		multiplier = GB
	case "M":
		multiplier = MB
	case "K":
		multiplier = KB
	case "B":
	default:
		// no unit, bytes
		valueStr = s
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid size: %s", s)
	}
	return ByteSize(value * float64(multiplier)), nil
}
