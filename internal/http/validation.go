package http

import (
	"regexp"
	"strings"
	"unicode"
)

const maxQuantity = 99

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "Email is required"
	}
	if !emailPattern.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

func validatePassword(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len(password) < 8 {
		return "Password must be at least 8 characters long"
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return "Password must contain at least one lowercase letter"
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return "Password must contain at least one uppercase letter"
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return "Password must contain at least one number"
	}
	return ""
}

func validateConfirmPassword(confirm, password string) string {
	if confirm == "" {
		return "Please confirm your password"
	}
	if confirm != password {
		return "Passwords do not match"
	}
	return ""
}
