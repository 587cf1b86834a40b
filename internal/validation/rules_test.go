package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"ada@example.com", false},
		{"a@b", false},
		{"", true},
		{"no-at-sign", true},
		{"two@@example.com", true},
		{"space @example.com", true},
		{"@example.com", true},
		{"ada@", true},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Min", "ab", false},
		{"Max", strings.Repeat("x", 20), false},
		{"Too Short", "a", true},
		{"Too Long", strings.Repeat("x", 21), true},
		{"Empty", "", true},
		{"Multibyte counts runes", "汤姆", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUsernameMessage(t *testing.T) {
	err := ValidateUsername("a")
	assert.EqualError(t, err, "Username must be between 2 and 20 characters")
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"Max", strings.Repeat("a", 72), ""},
		{"Too Long", strings.Repeat("a", 73), "Password must be at most 72 bytes"},
		{"Multibyte counts bytes", strings.Repeat("汤", 25), "Password must be at most 72 bytes"},
		{"Empty", "", "Password cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
