package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var validate = validator.New()

const (
	MaxSetNameLength  = 100
	MaxDescription    = 500
	MaxWordFieldLen   = 200
	MaxNotesLength    = 1000
	DefaultDifficulty = 50
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Struct validates a struct using its `validate` tags. The first failing
// field is reported as a ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		return ValidationError{Field: fe.Field(), Message: msg}
	}
	return err
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateSet checks a vocabulary set's name and description
func ValidateSet(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "set name is required"}
	}
	if utf8.RuneCountInString(name) > MaxSetNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("set name must be at most %d characters", MaxSetNameLength)}
	}
	if utf8.RuneCountInString(description) > MaxDescription {
		return ValidationError{Field: "description", Message: fmt.Sprintf("description must be at most %d characters", MaxDescription)}
	}
	return nil
}

// ValidateWord checks the fields of a vocabulary word. A word needs a meaning
// and at least one written form (kanji or kana).
func ValidateWord(kanji, kana, meaning, notes string, difficulty int) error {
	kanji = strings.TrimSpace(kanji)
	kana = strings.TrimSpace(kana)
	if kanji == "" && kana == "" {
		return ValidationError{Field: "kanji", Message: "kanji or kana is required"}
	}
	if strings.TrimSpace(meaning) == "" {
		return ValidationError{Field: "meaning", Message: "meaning is required"}
	}
	for field, value := range map[string]string{"kanji": kanji, "kana": kana, "meaning": meaning} {
		if utf8.RuneCountInString(value) > MaxWordFieldLen {
			return ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", MaxWordFieldLen)}
		}
	}
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return ValidationError{Field: "notes", Message: fmt.Sprintf("notes must be at most %d characters", MaxNotesLength)}
	}
	if difficulty < 0 || difficulty > 100 {
		return ValidationError{Field: "difficulty", Message: "difficulty must be between 0 and 100"}
	}
	return nil
}
