package utils

import (
	"fmt"
	"regexp"
)

var merchantIDRegex = regexp.MustCompile(`^[A-Za-z0-9]{1,64}$`)

var controlChars = regexp.MustCompile(`[\x00-\x20\x7f]`)

var nonPrintable = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ValidateMerchantID validates a merchant identifier (e.g. BBFF8NBCXEMDT)
func ValidateMerchantID(merchantID string) error {
	if !merchantIDRegex.MatchString(merchantID) {
		return fmt.Errorf("invalid merchant id: %q", merchantID)
	}
	return nil
}

// ValidateAccessToken rejects empty tokens and tokens containing whitespace or control characters
func ValidateAccessToken(token string) error {
	if token == "" {
		return fmt.Errorf("access token must not be empty")
	}
	if controlChars.MatchString(token) {
		return fmt.Errorf("access token contains whitespace or control characters")
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return nonPrintable.ReplaceAllString(s, "")
}
