package id

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

const accountNumberDigits = 10

var accountNumberSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(accountNumberDigits-1), nil)

// NewAccountNumber returns a random 10-digit display account number that never starts with 0.
func NewAccountNumber() string {
	n, err := rand.Int(rand.Reader, new(big.Int).Mul(accountNumberSpace, big.NewInt(9)))
	if err != nil {
		n = big.NewInt(0)
	}
	return n.Add(n, accountNumberSpace).String()
}
