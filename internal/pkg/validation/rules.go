package validation

import (
	"regexp"
)

// Validation rule patterns
var (
	// StudentIDPattern allows letters, digits, '-' and '/'
	StudentIDPattern = `^[A-Za-z0-9][A-Za-z0-9/\-]{1,31}$`

	// RollNoPattern is a short alphanumeric code
	RollNoPattern = `^[A-Za-z0-9\-]{1,16}$`

	// MobilePattern is an optional '+' followed by 10 to 15 digits
	MobilePattern = `^\+?[0-9]{10,15}$`

	// SessionYearPattern accepts 2025, 2025-26 and 2025-2026
	SessionYearPattern = `^\d{4}(-\d{2}|-\d{4})?$`

	// PasswordMinLength applies to every account
	PasswordMinLength = 8

	NameMinLength = 1
	NameMaxLength = 60
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	StudentID   *regexp.Regexp
	RollNo      *regexp.Regexp
	Mobile      *regexp.Regexp
	SessionYear *regexp.Regexp
}{
	StudentID:   regexp.MustCompile(StudentIDPattern),
	RollNo:      regexp.MustCompile(RollNoPattern),
	Mobile:      regexp.MustCompile(MobilePattern),
	SessionYear: regexp.MustCompile(SessionYearPattern),
}

// StringValidation checks a string against length and pattern rules.
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Required && v.Value == "" {
		return false
	}
	if !v.Required && v.Value == "" {
		return true
	}
	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}
	return true
}

// NumericValidation checks a float against an inclusive range.
type NumericValidation struct {
	Value float64
	Min   *float64
	Max   *float64
}

// NewNumericValidation creates a new numeric validation
func NewNumericValidation(value float64) *NumericValidation {
	return &NumericValidation{Value: value}
}

// WithMin sets the inclusive minimum
func (v *NumericValidation) WithMin(min float64) *NumericValidation {
	v.Min = &min
	return v
}

// WithMax sets the inclusive maximum
func (v *NumericValidation) WithMax(max float64) *NumericValidation {
	v.Max = &max
	return v
}

// Validate performs validation
func (v *NumericValidation) Validate() bool {
	if v.Min != nil && v.Value < *v.Min {
		return false
	}
	if v.Max != nil && v.Value > *v.Max {
		return false
	}
	return true
}

// IsMobile reports whether s is an acceptable phone number.
func IsMobile(s string) bool {
	return CompiledPatterns.Mobile.MatchString(s)
}

// IsSessionYear reports whether s looks like an academic session year.
func IsSessionYear(s string) bool {
	return CompiledPatterns.SessionYear.MatchString(s)
}
