package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateReceiptNumber returns a synthetic receipt reference used when the
// gateway did not hand back a payment or order id.
func GenerateReceiptNumber() string {
	return receiptNumberAt(time.Now().UTC())
}

func receiptNumberAt(now time.Time) string {
	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"RCPT-%s-%03d-%04d",
		datePart,
		millis,
		n.Int64(),
	)
}
