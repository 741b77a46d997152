package session

import (
	"crypto/rand"
	"math/big"
)

const (
	passwordLength = 10
	// Mixed-case alphanumerics plus a restricted symbol set, with the
	// visually ambiguous glyphs (0/O, 1/l/I) excluded.
	passwordChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%"
)

// GeneratePassword generates a random 10-character password for a new
// user created without an explicit one. The value is display
// convenience only; the server's record is authoritative.
func GeneratePassword() string {
	pw := make([]byte, passwordLength)
	for i := range pw {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(passwordChars))))
		pw[i] = passwordChars[n.Int64()]
	}
	return string(pw)
}
