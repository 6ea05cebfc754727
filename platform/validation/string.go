package validation

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/deskradar/clients-api/platform/apperrors"
)

type stringCheck struct {
	ruleType string
	text     string
	fn       func(value string, parent map[string]any) bool
}

// StringField validates string values. Rules run in the order they were
// attached, and a value listed via Allow bypasses them entirely.
type StringField struct {
	name        string
	required    bool
	allowValues []string
	checks      []stringCheck
}

func String(name string) *StringField {
	return &StringField{name: name}
}

func (f *StringField) Name() string { return f.name }

func (f *StringField) Required() *StringField {
	f.required = true
	return f
}

// Allow whitelists values that skip every attached rule. Used mainly to
// accept the empty string on otherwise constrained fields.
func (f *StringField) Allow(values ...string) *StringField {
	f.allowValues = append(f.allowValues, values...)
	return f
}

// Message replaces the error text of the most recently attached rule.
func (f *StringField) Message(text string) *StringField {
	if len(f.checks) > 0 {
		f.checks[len(f.checks)-1].text = text
	}
	return f
}

func (f *StringField) Min(length int) *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.min",
		text:     fmt.Sprintf("length must be at least %d characters long", length),
		fn: func(value string, _ map[string]any) bool {
			return len(value) >= length
		},
	})
	return f
}

func (f *StringField) Max(length int) *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.max",
		text:     fmt.Sprintf("length must be less than or equal to %d characters long", length),
		fn: func(value string, _ map[string]any) bool {
			return len(value) <= length
		},
	})
	return f
}

func (f *StringField) Regex(pattern *regexp.Regexp) *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.regex.base",
		text:     fmt.Sprintf("with value fails to match the required pattern: %s", pattern),
		fn: func(value string, _ map[string]any) bool {
			return pattern.MatchString(value)
		},
	})
	return f
}

func (f *StringField) Email() *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.email",
		text:     "must be a valid email",
		fn: func(value string, _ map[string]any) bool {
			addr, err := mail.ParseAddress(value)
			// Reject the name-addr form; only the bare address is valid.
			return err == nil && addr.Address == value && strings.Contains(value, ".")
		},
	})
	return f
}

func (f *StringField) URI() *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.uri",
		text:     "must be a valid uri",
		fn: func(value string, _ map[string]any) bool {
			parsed, err := url.Parse(value)
			return err == nil && parsed.Scheme != ""
		},
	})
	return f
}

var hostnamePattern = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func (f *StringField) Hostname() *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.hostname",
		text:     "must be a valid hostname",
		fn: func(value string, _ map[string]any) bool {
			return len(value) <= 253 && hostnamePattern.MatchString(value)
		},
	})
	return f
}

func (f *StringField) IPv4() *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.ipVersion",
		text:     "must be a valid ip address of one of the following versions [ipv4]",
		fn: func(value string, _ map[string]any) bool {
			ip := net.ParseIP(value)
			return ip != nil && ip.To4() != nil && strings.Count(value, ".") == 3
		},
	})
	return f
}

func (f *StringField) OneOf(values ...string) *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "any.allowOnly",
		text:     fmt.Sprintf("must be one of [%s]", strings.Join(values, ", ")),
		fn: func(value string, _ map[string]any) bool {
			for _, candidate := range values {
				if value == candidate {
					return true
				}
			}
			return false
		},
	})
	return f
}

// Country requires an ISO 3166-1 alpha-2 country code.
func (f *StringField) Country() *StringField {
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.countryCode",
		text:     "needs to be a valid ISO 3166-1 alpha-2 country code",
		fn: func(value string, _ map[string]any) bool {
			return IsCountryCode(value)
		},
	})
	return f
}

// Signature verifies the value as an RSA signature over the enclosing
// payload, excluding this field itself.
func (f *StringField) Signature(verifier *SignatureVerifier) *StringField {
	name := f.name
	f.checks = append(f.checks, stringCheck{
		ruleType: "string.unverifiedSignature",
		text:     "must be a valid signature",
		fn: func(value string, parent map[string]any) bool {
			return verifier.Verify(parent, name, value)
		},
	})
	return f
}

func (f *StringField) Validate(value any, present bool, parent map[string]any) (any, *apperrors.FieldError) {
	if !present {
		if f.required {
			return nil, newFieldError("any.required", f.name, "is required")
		}
		return nil, nil
	}

	str, ok := value.(string)
	if !ok {
		return nil, newFieldError("string.base", f.name, "must be a string")
	}

	for _, allowed := range f.allowValues {
		if str == allowed {
			return str, nil
		}
	}

	if str == "" {
		return nil, newFieldError("any.empty", f.name, "is not allowed to be empty")
	}

	for _, check := range f.checks {
		if !check.fn(str, parent) {
			return nil, newFieldError(check.ruleType, f.name, check.text)
		}
	}

	return str, nil
}
