package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Charset is the URL-safe alphabet generated short identifiers are drawn from.
const Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

var charsetLen = big.NewInt(int64(len(Charset)))

// GenerateShortCode generates a random string of fixed length
func GenerateShortCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		b[i] = Charset[n.Int64()]
	}
	return string(b), nil
}

// NewUserID returns an opaque identifier for a new account.
func NewUserID() string {
	return uuid.NewString()
}
