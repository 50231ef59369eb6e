package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	DefaultReferencePrefix = "CPVC"
	referenceAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceSuffixLen     = 5
)

var referencePattern = regexp.MustCompile(`^[A-Z0-9]+-[A-Z0-9]{5}$`)

// NewReferenceCode returns a display code such as CPVC-7KQ2D. It is not a secret.
func NewReferenceCode(prefix string) (string, error) {
	suffix := make([]byte, referenceSuffixLen)
	limit := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate reference code: %w", err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return prefix + "-" + string(suffix), nil
}

func IsReferenceCode(code string) bool {
	return referencePattern.MatchString(code)
}
