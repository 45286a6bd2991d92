package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatWithCommas(t *testing.T) {
	testCases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		1234567:  "1,234,567",
		-9876543: "-9,876,543",
	}
	for in, want := range testCases {
		assert.Equal(t, want, FormatWithCommas(in))
	}
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "3.21:1", FormatRatio(3.2149))
	assert.Equal(t, "1.00:1", FormatRatio(1))
}

func TestExtract(t *testing.T) {
	data := map[string]any{
		"server": map[string]any{"timeout_ms": int64(500), "base_url": "http://x", "push": true},
		"bad":    "not a table",
	}

	section, ok := ExtractSection(data, "server")
	assert.True(t, ok)
	_, ok = ExtractSection(data, "bad")
	assert.False(t, ok)

	n, ok := ExtractInt64(section, "timeout_ms")
	assert.True(t, ok)
	assert.Equal(t, 500, n)

	_, ok = ExtractInt64(section, "base_url")
	assert.False(t, ok)

	s, _ := ExtractString(section, "base_url")
	assert.Equal(t, "http://x", s)

	b, ok := ExtractBool(section, "push")
	assert.True(t, ok && b)
}
