package validation

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"user@example.com", true},
		{"  user@example.com  ", true},
		{"first.last+tag@sub.domain.io", true},
		{"", false},
		{"userexample.com", false},
		{"user@example", false},
		{"user@@example.com", false},
		{"us er@example.com", false},
		{"@example.com", false},
		{"user@.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, Email(tt.in).Valid, "%q", tt.in)
	}
	assert.Equal(t, "Please enter a valid email address", Email("nope").Message)
}

func TestEmail_NoAtOrNoDomainDotIsInvalid(t *testing.T) {
	noAt := func(s string) bool {
		s = strings.ReplaceAll(s, "@", "")
		return !Email(s).Valid
	}
	require.NoError(t, quick.Check(noAt, nil))

	noDomainDot := func(local, domain string) bool {
		domain = strings.ReplaceAll(domain, ".", "")
		return !Email(local + "@" + domain).Valid
	}
	require.NoError(t, quick.Check(noDomainDot, nil))
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("Abcdef1!").Valid)

	invalid := map[string]string{
		"too short":  "Abcde1!",
		"no upper":   "abcdef1!",
		"no lower":   "ABCDEF1!",
		"no digit":   "Abcdefg!",
		"no symbol":  "Abcdefg1",
		"bad symbol": "Abcdef1_",
		"empty":      "",
	}
	for name, pw := range invalid {
		t.Run(name, func(t *testing.T) {
			res := Password(pw)
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestPassword_ShortIsAlwaysInvalid(t *testing.T) {
	short := func(s string) bool {
		r := []rune(s)
		if len(r) >= MinPasswordLength {
			r = r[:MinPasswordLength-1]
		}
		return !Password(string(r)).Valid
	}
	require.NoError(t, quick.Check(short, nil))
}

func TestPasswordRequirements_Breakdown(t *testing.T) {
	r := PasswordRequirements("abc1")
	assert.Equal(t, Requirements{Lowercase: true, Number: true}, r)
	assert.False(t, r.Met())

	r = PasswordRequirements(`Zz9"zzzz`)
	assert.True(t, r.Met())
}

func TestConfirm(t *testing.T) {
	assert.True(t, Confirm("Password1!", "Password1!").Valid)

	res := Confirm("password1!", "Password1!")
	assert.False(t, res.Valid, "case difference must be a mismatch")
	assert.Equal(t, "Passwords do not match", res.Message)

	assert.False(t, Confirm("Password1! ", "Password1!").Valid)
	assert.False(t, Confirm("", "x").Valid)
}

func TestRequiredAndName(t *testing.T) {
	assert.Equal(t, "Password is required", Required("Password", "   ").Message)
	assert.True(t, Required("Password", "x").Valid)

	assert.Equal(t, "First Name must be at least 2 characters", Name("First Name", "A").Message)
	assert.Equal(t, "Last Name is required", Name("Last Name", "").Message)
	assert.True(t, Name("First Name", "Al").Valid)
}

func TestOTP(t *testing.T) {
	assert.True(t, OTP("012345").Valid)
	for _, bad := range []string{"", "12345", "1234567", "12a456", "12 456", "١٢٣٤٥٦"} {
		assert.False(t, OTP(bad).Valid, "%q", bad)
	}
}

func TestNormalizeOTP(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"123456", "123456", true},
		{" 123 456\n", "123456", true},
		{"123-456", "123456", true},
		{"12345", "", false},
		{"1234567", "", false},
		{"12345a", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeOTP(tt.in)
		assert.Equal(t, tt.ok, ok, "%q", tt.in)
		assert.Equal(t, tt.want, got, "%q", tt.in)
	}
}

func TestValidateRegistration(t *testing.T) {
	good := Registration{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "Abcdef1!",
		ConfirmPassword: "Abcdef1!",
		AgreeTerms:      true,
	}
	require.True(t, ValidateRegistration(good).Valid())
	require.NoError(t, ValidateRegistration(good).Err())

	bad := good
	bad.Email = "ada-at-example"
	bad.AgreeTerms = false
	report := ValidateRegistration(bad)
	require.False(t, report.Valid())

	failures := report.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, FieldEmail, failures[0].Field)
	assert.Equal(t, FieldTerms, failures[1].Field)

	var verr *ValidationError
	require.True(t, errors.As(report.Err(), &verr))
	assert.Equal(t, FieldEmail, verr.Field)
	assert.Equal(t, "Please enter a valid email address", verr.Error())
}

func TestRegistration_Normalize(t *testing.T) {
	f := Registration{FirstName: " Ada ", Email: " ada@example.com\n", Password: " pw "}.Normalize()
	assert.Equal(t, "Ada", f.FirstName)
	assert.Equal(t, "ada@example.com", f.Email)
	assert.Equal(t, " pw ", f.Password)
}

func TestValidateReset_And_Change(t *testing.T) {
	assert.True(t, ValidateReset("123456", "Abcdef1!", "Abcdef1!").Valid())
	assert.Equal(t, FieldOTP, ValidateReset("12", "Abcdef1!", "Abcdef1!").Err().(*ValidationError).Field)

	assert.True(t, ValidateChangePassword("old", "Abcdef1!", "Abcdef1!").Valid())
	assert.Equal(t, FieldConfirmPassword,
		ValidateChangePassword("old", "Abcdef1!", "abcdef1!").Err().(*ValidationError).Field)
}

func TestValidateLogin(t *testing.T) {
	assert.True(t, ValidateLogin("u@x.com", "anything").Valid())
	assert.False(t, ValidateLogin("u@x.com", "").Valid())
	assert.False(t, ValidateLogin("", "pw").Valid())
}
