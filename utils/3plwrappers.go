package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

func GetUUID() string {
	return uuid.New().String()
}

var digitRunes = []rune("0123456789")

// GenerateRandomDigitString creates a random numeric string of length n.
func GenerateRandomDigitString(n int) (string, error) {
	b := make([]rune, n)
	max := big.NewInt(int64(len(digitRunes)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = digitRunes[idx.Int64()]
	}
	return string(b), nil
}
