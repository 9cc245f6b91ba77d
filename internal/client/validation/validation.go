// Package validation holds the form rules of the authentication flows as pure
// predicates. Nothing here renders anything: a Result says whether a value
// passes and, if not, the message to show next to the field.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the client accepts.
const MinPasswordLength = 8

// PasswordSymbols is the set of characters that satisfies the "special
// character" rule.
const PasswordSymbols = `!@#$%^&*(),.?":{}|<>`

// OTPLength is the number of digits in an emailed verification code.
const OTPLength = 6

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpRe   = regexp.MustCompile(`^\d{6}$`)
)

// Result is the outcome of checking one field. Message is empty when Valid.
type Result struct {
	Valid   bool
	Message string
}

func ok() Result { return Result{Valid: true} }

func fail(msg string) Result { return Result{Message: msg} }

// Required fails when value is empty or only whitespace.
func Required(label, value string) Result {
	if strings.TrimSpace(value) == "" {
		return fail(label + " is required")
	}
	return ok()
}

// Email checks the local@domain.tld shape. Surrounding whitespace is ignored.
func Email(value string) Result {
	v := strings.TrimSpace(value)
	if v == "" {
		return fail("Email Address is required")
	}
	if !emailRe.MatchString(v) {
		return fail("Please enter a valid email address")
	}
	return ok()
}

// Name requires at least two characters once trimmed.
func Name(label, value string) Result {
	v := strings.TrimSpace(value)
	if v == "" {
		return fail(label + " is required")
	}
	if utf8.RuneCountInString(v) < 2 {
		return fail(label + " must be at least 2 characters")
	}
	return ok()
}

// Requirements is the per-rule breakdown of a candidate password, in the
// order the checklist is displayed.
type Requirements struct {
	Length    bool
	Uppercase bool
	Lowercase bool
	Number    bool
	Special   bool
}

// Met reports whether every rule holds.
func (r Requirements) Met() bool {
	return r.Length && r.Uppercase && r.Lowercase && r.Number && r.Special
}

// PasswordRequirements evaluates each composition rule independently.
func PasswordRequirements(password string) Requirements {
	r := Requirements{Length: utf8.RuneCountInString(password) >= MinPasswordLength}
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			r.Uppercase = true
		case c >= 'a' && c <= 'z':
			r.Lowercase = true
		case c >= '0' && c <= '9':
			r.Number = true
		case strings.ContainsRune(PasswordSymbols, c):
			r.Special = true
		}
	}
	return r
}

// Password checks composition: length, upper, lower, digit and symbol.
// These are UX hints; the server has the final word.
func Password(password string) Result {
	if password == "" {
		return fail("Password is required")
	}
	if !PasswordRequirements(password).Met() {
		return fail("Password does not meet all requirements")
	}
	return ok()
}

// Confirm requires confirmation to equal password byte for byte, so a
// difference in case is a mismatch.
func Confirm(confirmation, password string) Result {
	if confirmation == "" {
		return fail("Confirm Password is required")
	}
	if confirmation != password {
		return fail("Passwords do not match")
	}
	return ok()
}

// OTP requires exactly six ASCII digits.
func OTP(code string) Result {
	if !otpRe.MatchString(code) {
		return fail("Please enter the complete 6-digit verification code")
	}
	return ok()
}

// NormalizeOTP turns pasted text such as " 123 456 " or "123-456" into the
// six digits. Any other character, or a digit count other than six, fails.
func NormalizeOTP(pasted string) (string, bool) {
	var b strings.Builder
	for _, c := range pasted {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '\t' || c == '\n' || c == '\r':
		default:
			return "", false
		}
	}
	code := b.String()
	if len(code) != OTPLength {
		return "", false
	}
	return code, true
}

// Terms requires the terms-of-service box to be ticked.
func Terms(agreed bool) Result {
	if !agreed {
		return fail("Please agree to the Terms of Service and Privacy Policy")
	}
	return ok()
}
