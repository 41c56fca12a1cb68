package domain

import (
	"regexp"
	"strings"
)

const (
	minRegistrationLength = 2
	maxRegistrationLength = 7
)

// plateFormat is one accepted UK plate grammar, matched against a sanitised token.
type plateFormat struct {
	name string
	re   *regexp.Regexp
}

// Order matters only for PlateFormat: the first matching grammar names the plate.
var plateFormats = []plateFormat{
	{"current", regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z]{3}$`)},
	{"prefix", regexp.MustCompile(`^[A-Z][0-9]{1,3}[A-Z]{3}$`)},
	{"suffix", regexp.MustCompile(`^[A-Z]{3}[0-9]{1,3}[A-Z]$`)},
	{"dateless-number-first", regexp.MustCompile(`^[0-9]{1,4}[A-Z]{1,2}$`)},
	{"dateless-short-number-first", regexp.MustCompile(`^[0-9]{1,3}[A-Z]{1,3}$`)},
	{"dateless-letter-first", regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,4}$`)},
	{"dateless-short-letter-first", regexp.MustCompile(`^[A-Z]{1,3}[0-9]{1,3}$`)},
	{"northern-ireland", regexp.MustCompile(`^[A-Z]{1,3}[0-9]{1,4}$`)},
}

// Diplomatic plates (NNN L NNN) are never looked up.
var diplomaticPlate = regexp.MustCompile(`^[0-9]{3}[A-Z][0-9]{3}$`)

// Sanitise strips every character that is not an ASCII letter or digit and
// upper-cases the rest. It is idempotent.
func Sanitise(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// Validate reports whether token is a plausible UK registration. The token
// is sanitised first, so spacing and case do not matter.
func Validate(token string) bool {
	_, ok := PlateFormat(token)
	return ok
}

// PlateFormat returns the name of the first plate grammar token matches.
func PlateFormat(token string) (string, bool) {
	s := Sanitise(token)
	if len(s) < minRegistrationLength || len(s) > maxRegistrationLength {
		return "", false
	}
	if diplomaticPlate.MatchString(s) {
		return "", false
	}
	for _, f := range plateFormats {
		if f.re.MatchString(s) {
			return f.name, true
		}
	}
	return "", false
}

// Registration is a sanitised, validated registration mark.
type Registration struct {
	token string
}

// ParseRegistration sanitises raw and validates the result.
func ParseRegistration(raw string) (Registration, error) {
	s := Sanitise(raw)
	if !Validate(s) {
		return Registration{}, NewValidationError("registration", raw, ErrInvalidRegistration)
	}
	return Registration{token: s}, nil
}

// MustRegistration is ParseRegistration for literals known to be valid.
func MustRegistration(raw string) Registration {
	r, err := ParseRegistration(raw)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Registration) String() string { return r.token }

// IsZero reports whether r was never parsed.
func (r Registration) IsZero() bool { return r.token == "" }

// QPlate reports whether the registration is a Q plate (vehicle of
// undetermined age or identity).
func (r Registration) QPlate() bool { return strings.HasPrefix(r.token, "Q") }
