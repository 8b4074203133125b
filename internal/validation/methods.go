package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "paydesk/internal/errors"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Local numbers without the prefix, optionally grouped by spaces.
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ]{6,15}$`)
)

// Validator collects per-field messages. Field names are form paths such as
// "companyInfo.ico" so the wizard can point at the offending input.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records message for field. The first message per field wins.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Fields returns the failing field paths in sorted order.
func (v *Validator) Fields() []string {
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Err returns nil when valid, otherwise a VALIDATION_FAILED error listing
// every field in order.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	fields := v.Fields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v.Errors[f]
	}
	return apperrors.WithMessage(apperrors.ErrValidation, strings.Join(parts, "; "))
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) Email(field, email string) {
	v.Check(emailRegex.MatchString(strings.TrimSpace(email)), field, "must be a valid email address")
}

func (v *Validator) Phone(field, phone string) {
	v.Check(phoneRegex.MatchString(strings.TrimSpace(phone)), field, "must be a valid phone number")
}

// Required rejects blank strings, nil pointers and empty slices or maps.
func (v *Validator) Required(field string, value interface{}) {
	if s, ok := value.(string); ok {
		v.Check(strings.TrimSpace(s) != "", field, "is required")
		return
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Invalid:
		v.AddError(field, "is required")
	case reflect.Ptr, reflect.Interface:
		v.Check(!rv.IsNil(), field, "is required")
	case reflect.Slice, reflect.Map:
		v.Check(rv.Len() > 0, field, "must contain at least one item")
	}
}

// MaxLength counts runes, so diacritics in names count once.
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(utf8.RuneCountInString(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Password enforces the account password policy. The upper bound is the
// bcrypt input limit.
func (v *Validator) Password(field, password string) {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		v.AddError(field, fmt.Sprintf("must be %d to %d characters long", MinPasswordLength, MaxPasswordLength))
		return
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	v.Check(upper && lower, field, "must mix upper and lower case letters")
	v.Check(digit, field, "must contain a number")
	v.Check(special, field, "must contain a special character")
}
