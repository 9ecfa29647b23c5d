package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		// Valid emails
		{"valid simple email", "test@example.com", nil},
		{"valid with subdomain", "user@mail.example.com", nil},
		{"valid with plus", "user+tag@example.com", nil},
		{"valid with dots", "first.last@example.com", nil},
		{"valid uppercase normalized", "TEST@EXAMPLE.COM", nil},
		{"valid with whitespace trimmed", "  test@example.com  ", nil},

		// Invalid emails
		{"empty string", "", ErrEmptyInput},
		{"whitespace only", "   ", ErrEmptyInput},
		{"missing @", "testexample.com", ErrInvalidEmail},
		{"missing domain", "test@", ErrInvalidEmail},
		{"missing local part", "@example.com", ErrInvalidEmail},
		{"double @", "test@@example.com", ErrInvalidEmail},
		{"invalid chars", "test<>@example.com", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail_TooLong(t *testing.T) {
	// Create email longer than 254 characters
	longLocal := strings.Repeat("a", 250)
	longEmail := longLocal + "@example.com" // Total: 250 + 12 = 262 chars
	err := ValidateEmail(longEmail)
	assert.ErrorIs(t, err, ErrInputTooLong)
}

func TestNormalizeEmail_ReturnsCanonicalForm(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"lowercases", "Sales@Acme.COM", "sales@acme.com"},
		{"trims whitespace", "  sales@acme.com ", "sales@acme.com"},
		{"already canonical", "sales@acme.com", "sales@acme.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEmail(tt.email)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeEmail_RejectsInvalid(t *testing.T) {
	_, err := NormalizeEmail("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		wantLocal  string
		wantDomain string
	}{
		{"simple address", "sales@acme.com", "sales", "acme.com"},
		{"subdomain", "a@mail.example.org", "a", "mail.example.org"},
		{"no separator", "localonly", "localonly", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, domain := SplitAddress(tt.email)
			assert.Equal(t, tt.wantLocal, local)
			assert.Equal(t, tt.wantDomain, domain)
		})
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults applied", 0, 0, DefaultLimit, 0},
		{"negative limit", -5, 0, DefaultLimit, 0},
		{"limit capped", 500, 0, MaxLimit, 0},
		{"negative offset", 10, -3, 10, 0},
		{"valid values kept", 50, 100, 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ValidatePagination(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"removes control chars", "hello\x00world\x1f", 0, "helloworld"},
		{"trims whitespace", "  hello  ", 0, "hello"},
		{"enforces max length", "hello world", 5, "hello"},
		{"no max length", "hello world", 0, "hello world"},
		{"empty input", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeString(tt.input, tt.maxLength))
		})
	}
}
