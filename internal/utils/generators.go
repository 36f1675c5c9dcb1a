package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Ticket codes are 8 characters drawn from a 36-symbol alphabet, giving
// roughly 2.8e12 combinations. The issuer still verifies uniqueness against
// the store before persisting.
const (
	TicketCodeLength   = 8
	ticketCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateTicketCode returns a fresh random ticket code in canonical
// (uppercase) form.
func GenerateTicketCode() (string, error) {
	var sb strings.Builder
	sb.Grow(TicketCodeLength)
	max := big.NewInt(int64(len(ticketCodeAlphabet)))
	for i := 0; i < TicketCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate ticket code: %w", err)
		}
		sb.WriteByte(ticketCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeTicketCode maps scanner input to the canonical uppercase form
// used for lookups.
func NormalizeTicketCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateAttemptID creates an identifier for a scan attempt row.
func GenerateAttemptID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999999))
	return fmt.Sprintf("scan_%d_%09d", timestamp, randomNum.Int64())
}
