package flows

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the minimum new-password length in characters.
const MinPasswordLength = 8

// OTPDigits is the length of every one-time code.
const OTPDigits = 6

// Same shape the browser form accepted: local@domain.tld, no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError is a validation failure scoped to one input. It is always
// reported before any network call.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ServerError is a business rejection passed through from the backend verbatim.
type ServerError struct {
	Op      string
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// ValidEmail reports whether s is a syntactically valid email address.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) <= 254 && emailPattern.MatchString(s)
}

// ValidOTP reports whether code is exactly six ASCII digits.
func ValidOTP(code string) bool {
	if len(code) != OTPDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &FieldError{Field: "email", Message: "Email is required"}
	}
	if !ValidEmail(email) {
		return &FieldError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}

func validateOTP(code string) error {
	if !ValidOTP(code) {
		return &FieldError{Field: "code", Message: "Please enter the 6-digit code"}
	}
	return nil
}

func validateNewPassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &FieldError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	if password != confirm {
		return &FieldError{Field: "confirmPassword", Message: "Passwords do not match"}
	}
	return nil
}

func maskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local[:1] + "***" + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + domain
}
