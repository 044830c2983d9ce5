package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID v4 string.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateOrderID generates a unique order ID for payments.
func GenerateOrderID() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), RandomHex(4))
}

// RandomHex generates a random hex string of n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ConvertPersianToEnglish converts Persian/Arabic digits to English digits.
func ConvertPersianToEnglish(s string) string {
	replacer := strings.NewReplacer(
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
		"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	)
	return replacer.Replace(s)
}

// ParseInt parses a string to int with a default value.
func ParseInt(s string, defaultVal int) int {
	s = strings.TrimSpace(ConvertPersianToEnglish(s))
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// FormatNumber adds comma separators to a number.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var result strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	if neg {
		return "-" + result.String()
	}
	return result.String()
}
