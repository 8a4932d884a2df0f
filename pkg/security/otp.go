package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OtpLength is the number of digits in a generated one-time code
const OtpLength = 4

// GenerateOtp returns a zero-padded numeric one-time code of OtpLength digits
func GenerateOtp() (string, error) {
	max := big.NewInt(1)
	for range OtpLength {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", OtpLength, n), nil
}
