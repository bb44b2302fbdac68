package devicestore

import (
	"regexp"
	"strings"
)

// Spanish mobile numbers: 9 digits starting with 6-9, optionally prefixed
// by the country code as +34, 0034 or 34.
var mobilePhoneRegex = regexp.MustCompile(`^(?:\+34|0034|34)?([6-9]\d{8})$`)

func stripSpaces(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

// ValidatePhone accepts an empty value; anything else must be a national
// mobile number once whitespace is removed.
func ValidatePhone(phone string) bool {
	p := stripSpaces(phone)
	if p == "" {
		return true
	}
	return mobilePhoneRegex.MatchString(p)
}

// PhoneToE164 rewrites a valid mobile number as +34XXXXXXXXX. It returns ""
// for empty or invalid input.
func PhoneToE164(phone string) string {
	m := mobilePhoneRegex.FindStringSubmatch(stripSpaces(phone))
	if m == nil {
		return ""
	}
	return "+34" + m[1]
}
