package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/spoileralert/backend/pkg/errors"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
	maxPasswordLength = 128
	minEmailLength    = 5
	maxEmailLength    = 254
	maxNameLength     = 50
	minAge            = 16
	maxAge            = 120
	maxReviewTitle    = 200
	maxReviewBody     = 5000
	maxReplyBody      = 2000
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return apperrors.NewValidationError(fmt.Sprintf("username must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}
	if !usernamePattern.MatchString(username) {
		return apperrors.NewValidationError("username may only contain letters, digits, '.', '_' and '-'")
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return apperrors.NewValidationError(fmt.Sprintf("password must be %d-%d characters", minPasswordLength, maxPasswordLength))
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return apperrors.NewValidationError("password must contain uppercase, lowercase, and a digit")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) < minEmailLength || len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return apperrors.NewValidationError("email address is not valid")
	}
	return nil
}

func validateName(field, value string) error {
	n := utf8.RuneCountInString(value)
	if n < 1 || n > maxNameLength {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be 1-%d characters", field, maxNameLength))
	}
	return nil
}

func validateAge(age *int) error {
	if age == nil {
		return apperrors.NewValidationError("age is required")
	}
	if *age < minAge {
		return apperrors.NewValidationError(fmt.Sprintf("user must be %d years or older to create an account", minAge))
	}
	if *age > maxAge {
		return apperrors.NewValidationError(fmt.Sprintf("age must be at most %d", maxAge))
	}
	return nil
}

func validateText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(value) > max {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}
