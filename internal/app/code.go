package app

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
	"strings"
)

const (
	// DefaultCodeLength matches the six-character codes players type in.
	DefaultCodeLength = 6
	codeChars         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// maxCodeAttempts bounds regeneration when codes collide.
	maxCodeAttempts = 64
)

// CodeGenerator produces candidate room codes. Uniqueness is the store's job.
type CodeGenerator func() string

// RandomCodes returns a generator of uppercase alphanumeric codes of the given length.
func RandomCodes(length int) CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	max := big.NewInt(int64(len(codeChars)))
	return func() string {
		code := make([]byte, length)
		for i := range code {
			n, err := crand.Int(crand.Reader, max)
			if err != nil {
				code[i] = codeChars[rand.Intn(len(codeChars))]
				continue
			}
			code[i] = codeChars[n.Int64()]
		}
		return string(code)
	}
}

// NormalizeCode makes codes case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AllocateCode draws codes until taken reports one as free.
func AllocateCode(gen CodeGenerator, taken func(code string) bool) (string, bool) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := NormalizeCode(gen())
		if code != "" && !taken(code) {
			return code, true
		}
	}
	return "", false
}
