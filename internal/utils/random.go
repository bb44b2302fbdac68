package utils

import (
	"crypto/rand"
	"math/big"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomBase36String returns `length` characters drawn uniformly from
// [0-9a-z].
func RandomBase36String(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = base36Alphabet[n.Int64()]
	}
	return string(b)
}
