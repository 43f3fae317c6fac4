package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCodesUseAlphabet(t *testing.T) {
	gen := RandomCodes(DefaultCodeLength)
	for i := 0; i < 500; i++ {
		code := gen()
		assert.Len(t, code, DefaultCodeLength)
		for _, c := range code {
			assert.Contains(t, codeChars, string(c))
		}
	}
}

func TestRandomCodesDefaultLength(t *testing.T) {
	assert.Len(t, RandomCodes(0)(), DefaultCodeLength)
	assert.Len(t, RandomCodes(8)(), 8)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeCode("  abc123 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestAllocateCodeSkipsTakenCodes(t *testing.T) {
	queue := []string{"aaa111", "", "BBB222"}
	gen := func() string {
		c := queue[0]
		queue = queue[1:]
		return c
	}
	code, ok := AllocateCode(gen, func(code string) bool { return code == "AAA111" })
	assert.True(t, ok)
	assert.Equal(t, "BBB222", code)
}

func TestAllocateCodeGivesUp(t *testing.T) {
	calls := 0
	_, ok := AllocateCode(func() string {
		calls++
		return "SAME00"
	}, func(string) bool { return true })
	assert.False(t, ok)
	assert.Equal(t, maxCodeAttempts, calls)
}
