package utils

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validation errors
var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordNotComplex = errors.New("password must include at least one uppercase letter, one lowercase letter, one digit, and one special character")
)

var (
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`\d`)
	specialRegex   = regexp.MustCompile(`[@$!%*?&#^_\-]`)
	resetCodeRegex = regexp.MustCompile(`^\d{6}$`)
)

// PasswordRule enforces length and complexity.
var PasswordRule = validation.By(validatePassword)

// ResetCodeRule accepts six digit reset codes.
var ResetCodeRule = validation.Match(resetCodeRegex).Error("invalid reset code")

// EmailRules are applied to every email address accepted by the API.
var EmailRules = []validation.Rule{validation.Required, is.EmailFormat, validation.Length(3, 255)}

// ValidateEmail checks a single email address.
func ValidateEmail(email string) error {
	return validation.Validate(email, EmailRules...)
}

// ValidatePasswordReset validates the reset code and new password.
func ValidatePasswordReset(email, resetCode, newPassword string) error {
	return validation.Errors{
		"email":       validation.Validate(email, EmailRules...),
		"code":        validation.Validate(resetCode, validation.Required.Error("invalid reset code"), ResetCodeRule),
		"newPassword": validation.Validate(newPassword, validation.Required, PasswordRule),
	}.Filter()
}

func validatePassword(value interface{}) error {
	password, _ := value.(string)
	if password == "" {
		return nil
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if !lowercaseRegex.MatchString(password) ||
		!uppercaseRegex.MatchString(password) ||
		!digitRegex.MatchString(password) ||
		!specialRegex.MatchString(password) {
		return ErrPasswordNotComplex
	}
	return nil
}
