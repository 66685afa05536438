package binder

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	dateRE = regexp.MustCompile(`^\d{4}-(0[0-9]|1[0-2])-(0[0-9]|1[0-9]|2[0-9]|3[0-1])$`)
)

// dateValidator ensures the value matches the format YYYY-MM-DD or the empty
// string. The empty string is allowed so that the validator can be combined
// with omitempty on optional fields.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dateRE.MatchString(value)
}

// isbnValidator accepts ISBN-10 and ISBN-13 values with or without hyphens and
// spaces, and checks the check digit.
func isbnValidator(fl validator.FieldLevel) bool {
	return ValidISBN(fl.Field().String())
}

// ValidISBN reports whether s is a well-formed ISBN-10 or ISBN-13.
func ValidISBN(s string) bool {
	digits := NormalizeISBN(s)
	switch len(digits) {
	case 10:
		sum := 0
		for i, r := range digits {
			var v int
			switch {
			case r >= '0' && r <= '9':
				v = int(r - '0')
			case r == 'X' && i == 9:
				v = 10
			default:
				return false
			}
			sum += v * (10 - i)
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
			v := int(r - '0')
			if i%2 == 1 {
				v *= 3
			}
			sum += v
		}
		return sum%10 == 0
	default:
		return false
	}
}

// NormalizeISBN strips hyphens and spaces and upper cases a trailing x.
func NormalizeISBN(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}
