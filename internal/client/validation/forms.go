package validation

import "strings"

// Field names used as report keys. They match the JSON field names sent to
// the API so a server-side field error can be mapped onto the same slot.
const (
	FieldFirstName        = "firstName"
	FieldLastName         = "lastName"
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldConfirmPassword  = "confirmPassword"
	FieldTerms            = "agreeTerms"
	FieldOTP              = "otpCode"
	FieldCurrentPassword  = "currentPassword"
	FieldNewPassword      = "newPassword"
	FieldConfirmationText = "confirmationText"
)

// FieldResult pairs a field with its check.
type FieldResult struct {
	Field string
	Result
}

// Report is the ordered outcome of validating a whole form.
type Report []FieldResult

func (r *Report) add(field string, res Result) {
	*r = append(*r, FieldResult{Field: field, Result: res})
}

// Valid reports whether every field passed.
func (r Report) Valid() bool {
	for _, f := range r {
		if !f.Valid {
			return false
		}
	}
	return true
}

// Failures returns only the failing fields, in form order.
func (r Report) Failures() []FieldResult {
	var out []FieldResult
	for _, f := range r {
		if !f.Valid {
			out = append(out, f)
		}
	}
	return out
}

// Err returns a *ValidationError for the first failing field, or nil.
func (r Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &ValidationError{Field: failures[0].Field, Message: failures[0].Message, Report: r}
}

// ValidationError is returned by the flows when input is rejected before any
// network call. Message is the first failure and is safe to show as-is.
type ValidationError struct {
	Field   string
	Message string
	Report  Report
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Registration is the sign-up form.
type Registration struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	AgreeTerms      bool
}

// Normalize trims the text fields that are never meant to carry whitespace.
// Passwords are left alone.
func (f Registration) Normalize() Registration {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	return f
}

func ValidateRegistration(f Registration) Report {
	var r Report
	r.add(FieldFirstName, Name("First Name", f.FirstName))
	r.add(FieldLastName, Name("Last Name", f.LastName))
	r.add(FieldEmail, Email(f.Email))
	r.add(FieldPassword, Password(f.Password))
	r.add(FieldConfirmPassword, Confirm(f.ConfirmPassword, f.Password))
	r.add(FieldTerms, Terms(f.AgreeTerms))
	return r
}

// ValidateLogin only checks presence and email shape; password composition
// is not enforced on sign-in since older accounts may predate the rules.
func ValidateLogin(email, password string) Report {
	var r Report
	r.add(FieldEmail, Email(email))
	r.add(FieldPassword, Required("Password", password))
	return r
}

func ValidateForgot(email string) Report {
	var r Report
	r.add(FieldEmail, Email(email))
	return r
}

func ValidateVerification(otp string) Report {
	var r Report
	r.add(FieldOTP, OTP(otp))
	return r
}

func ValidateReset(otp, newPassword, confirmation string) Report {
	var r Report
	r.add(FieldOTP, OTP(otp))
	r.add(FieldNewPassword, Password(newPassword))
	r.add(FieldConfirmPassword, Confirm(confirmation, newPassword))
	return r
}

func ValidateChangePassword(current, newPassword, confirmation string) Report {
	var r Report
	r.add(FieldCurrentPassword, Required("Current Password", current))
	r.add(FieldNewPassword, Password(newPassword))
	r.add(FieldConfirmPassword, Confirm(confirmation, newPassword))
	return r
}
