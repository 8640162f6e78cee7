package util

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// pairCodeAlphabet drops 0/O and 1/I so codes survive being read aloud or
// typed from a second screen. 32 symbols at length 10 gives ~50 bits.
const (
	pairCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	pairCodeLength   = 10
	deviceTokenBytes = 32
)

// GeneratePairCode draws a 10-character code from the unambiguous alphabet.
// An error means the entropy source failed; there is no point retrying it.
func GeneratePairCode() (string, error) {
	buf := make([]byte, pairCodeLength)
	max := big.NewInt(int64(len(pairCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		buf[i] = pairCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateDeviceToken returns 32 random bytes as unpadded base64url
// (43 characters, ~256 bits).
func GenerateDeviceToken() (string, error) {
	b := make([]byte, deviceTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// MaskCode keeps logs useful without writing full pairing codes into them.
func MaskCode(code string) string {
	if len(code) <= 4 {
		return "****"
	}
	return code[:4] + "******"
}

// MaskToken never reveals more than a short prefix of a device token.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:8] + "..."
}
