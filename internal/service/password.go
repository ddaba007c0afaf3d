package service

import (
	"strings"
	"unicode"

	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

// PasswordSymbols is the fixed set accepted by the symbol rule and rejected
// inside user names.
const PasswordSymbols = "()[]{}|\\`~!@#$%^&*_-+=;:'\",<>./?"

const (
	minPasswordLength = 8
	minNameLength     = 5
)

// validatePassword evaluates every password rule and records all failing ones
// under the given field.
func validatePassword(ve *apperror.ValidationError, field, password string) {
	if len(password) < minPasswordLength {
		ve.Add(field, "Ensure this field has at least 8 characters.")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		ve.Add(field, "This password must contain at least 1 uppercase letter, A-Z.")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		ve.Add(field, "This password must contain at least 1 lowercase letter, a-z.")
	}
	if !strings.ContainsAny(password, PasswordSymbols) {
		ve.Add(field, "This password must contain at least 1 symbol: "+PasswordSymbols)
	}
	if isEntirelyNumeric(password) {
		ve.Add(field, "This password is entirely numeric.")
	}
}

func validateName(ve *apperror.ValidationError, name string) {
	if name == "" {
		ve.Add("name", "This field is required.")
		return
	}
	if len(name) < minNameLength {
		ve.Add("name", "Ensure this field has at least 5 characters.")
	}
	if strings.ContainsAny(name, PasswordSymbols) {
		ve.Add("name", "The name contains special symbol")
	}
}

func isEntirelyNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
