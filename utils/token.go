package utils

import (
	"crypto/rand"
	"math/big"
)

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateRandomToken(length int) string {
	return randomFrom(tokenCharset, length)
}

// GenerateNumericCode returns a zero-padded code of n decimal digits.
func GenerateNumericCode(n int) string {
	return randomFrom("0123456789", n)
}

func randomFrom(charset string, length int) string {
	out := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		out[i] = charset[v.Int64()]
	}
	return string(out)
}
