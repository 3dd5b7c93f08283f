package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const trackingPrefix = "CITIVOICE"

var trackingCodePattern = regexp.MustCompile(`^CITIVOICE-\d{3}-\d{3}-\d{3}-\d{4}-\d{3}$`)

// GenerateTrackingCode returns CITIVOICE-ddd-ddd-ddd-tttt-ddd where tttt are
// the last four digits of now in Unix milliseconds.
func GenerateTrackingCode(now time.Time) (string, error) {
	groups := make([]int64, 4)
	for i := range groups {
		n, err := rand.Int(rand.Reader, big.NewInt(1000))
		if err != nil {
			return "", fmt.Errorf("generate tracking code: %w", err)
		}
		groups[i] = n.Int64()
	}
	return fmt.Sprintf("%s-%03d-%03d-%03d-%04d-%03d",
		trackingPrefix, groups[0], groups[1], groups[2], now.UnixMilli()%10000, groups[3]), nil
}

// ValidTrackingCode reports whether code has the tracking code shape
func ValidTrackingCode(code string) bool {
	return trackingCodePattern.MatchString(code)
}
