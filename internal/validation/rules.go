// Package validation holds the input rules shared by the account and comment
// services.
package validation

import (
	"regexp"

	"github.com/jellydator/validation"
)

const (
	UsernameMinLen = 2
	UsernameMaxLen = 20

	// MaxPasswordBytes is the longest input bcrypt will hash.
	MaxPasswordBytes = 72

	MaxCommentLen = 10000
	MaxAuthorLen  = 64
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

var (
	// Email accepts local-part@domain with no whitespace.
	Email = validation.Match(emailPattern).Error("Invalid email format")

	// Username bounds the length in characters, not bytes.
	Username = validation.RuneLength(UsernameMinLen, UsernameMaxLen).
			Error("Username must be between 2 and 20 characters")

	// Password bounds the length in bytes, not characters.
	Password = validation.Length(0, MaxPasswordBytes).
			Error("Password must be at most 72 bytes")

	// CommentContent bounds comment bodies.
	CommentContent = validation.RuneLength(0, MaxCommentLen).
			Error("Comment content must not exceed 10000 characters")

	// CommentAuthor bounds author display names.
	CommentAuthor = validation.RuneLength(0, MaxAuthorLen).
			Error("Author name must not exceed 64 characters")
)

// ValidateEmail checks a non-empty email against the Email rule.
func ValidateEmail(email string) error {
	return validation.Validate(email, validation.Required.Error("Email is required"), Email)
}

// ValidateUsername checks a non-empty username against the Username rule.
func ValidateUsername(username string) error {
	return validation.Validate(username, validation.Required.Error("Username is required"), Username)
}

// ValidatePassword checks a non-empty password against the Password rule.
func ValidatePassword(password string) error {
	return validation.Validate(password, validation.Required.Error("Password cannot be empty"), Password)
}
