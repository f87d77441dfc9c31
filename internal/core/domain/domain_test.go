package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple", "example.com"},
		{"subdomain", "app.example.com"},
		{"deep subdomain", "a.b.c.example.com"},
		{"internal hyphen", "my-app.example.com"},
		{"digits", "app2.example.com"},
		{"single label", "localhost"},
		{"single char labels", "a.b"},
		{"max length label", strings.Repeat("a", 63) + ".com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.input, d.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyDomain},
		{"whitespace only", "   ", ErrEmptyDomain},
		{"leading hyphen", "-bad.com", ErrInvalidFormat},
		{"trailing hyphen", "bad-.com", ErrInvalidFormat},
		{"empty label", "a..b.com", ErrInvalidFormat},
		{"leading dot", ".example.com", ErrInvalidFormat},
		{"trailing dot", "example.com.", ErrInvalidFormat},
		{"underscore", "my_app.example.com", ErrInvalidFormat},
		{"space inside", "exa mple.com", ErrInvalidFormat},
		{"slash", "example.com/etc/passwd", ErrInvalidFormat},
		{"semicolon", "example.com;rm", ErrInvalidFormat},
		{"label too long", strings.Repeat("a", 64) + ".com", ErrInvalidFormat},
		{"total too long", strings.Repeat("abcdefgh.", 30) + "com", ErrDomainTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_Lowercases(t *testing.T) {
	d, err := Parse("Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "example.com", d.String())
}

func TestParse_TrimsWhitespace(t *testing.T) {
	d, err := Parse("  example.com\n")
	require.NoError(t, err)
	assert.Equal(t, "example.com", d.String())
}
