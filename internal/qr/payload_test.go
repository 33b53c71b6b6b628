package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		origin   string
		expected string
	}{
		{
			name:     "Plain origin",
			code:     "TRV-ABC123",
			origin:   "https://tavares.club",
			expected: "https://tavares.club/#/?validate=TRV-ABC123",
		},
		{
			name:     "Origin with trailing slash",
			code:     "TRV-ABC123",
			origin:   "https://tavares.club/",
			expected: "https://tavares.club/#/?validate=TRV-ABC123",
		},
		{
			name:     "Localhost origin",
			code:     "TRV-XYZ789",
			origin:   "http://localhost:8080",
			expected: "http://localhost:8080/#/?validate=TRV-XYZ789",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.code, tt.origin))
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	codes := []string{"TRV-ABC123", "TRV-5F3A8C9D2", "TRV-AAAAAAAAAAAA"}
	origins := []string{"https://tavares.club", "http://localhost:3000/"}

	for _, code := range codes {
		for _, origin := range origins {
			assert.Equal(t, code, Decode(Encode(code, origin)))
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "Bare code",
			raw:      "TRV-ABC123",
			expected: "TRV-ABC123",
		},
		{
			name:     "Bare code with surrounding whitespace",
			raw:      "  TRV-ABC123\n",
			expected: "TRV-ABC123",
		},
		{
			name:     "JSON payload",
			raw:      `{"code":"TRV-ABC123"}`,
			expected: "TRV-ABC123",
		},
		{
			name:     "JSON payload with extra fields",
			raw:      `{"code":"TRV-ABC123","partner":"posto-tavares"}`,
			expected: "TRV-ABC123",
		},
		{
			name:     "Hash-routed URL",
			raw:      "https://x/#/?validate=TRV-ABC123",
			expected: "TRV-ABC123",
		},
		{
			name:     "Document query string",
			raw:      "https://x/validar?validate=TRV-ABC123",
			expected: "TRV-ABC123",
		},
		{
			name:     "Parameter among others",
			raw:      "https://x/#/?utm_source=qr&validate=TRV-ABC123&lang=pt",
			expected: "TRV-ABC123",
		},
		{
			name:     "Garbage falls through as raw candidate",
			raw:      "garbage##not-a-code",
			expected: "garbage##not-a-code",
		},
		{
			name:     "Malformed JSON falls through as raw candidate",
			raw:      `{"code":`,
			expected: `{"code":`,
		},
		{
			name:     "URL without validate parameter falls through",
			raw:      "https://x/#/?other=1",
			expected: "https://x/#/?other=1",
		},
		{
			name:     "Empty input",
			raw:      "",
			expected: "",
		},
		{
			name:     "Whitespace only",
			raw:      "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decode(tt.raw))
		})
	}
}

func TestDecode_NeverPanics(t *testing.T) {
	inputs := []string{
		"://///",
		"{{{{",
		"?validate=",
		"&validate=",
		"#?validate",
		string([]byte{0x00, 0xff, 0xfe}),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() { Decode(in) })
	}
}
