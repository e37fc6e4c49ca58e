package domain

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// MaxURLLength is the maximum URL length supported by common browsers.
const MaxURLLength = 2083

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ValidateURL checks a single URL for scheme, length and a parseable host.
// The returned reason is safe to show to the user.
func ValidateURL(raw string) error {
	if raw == "" {
		return NewValidationError("URL cannot be empty.")
	}
	if len(raw) > MaxURLLength {
		return NewValidationError("URL is too long. Please provide a shorter URL.")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return NewValidationError("Invalid URL. The URL must start with 'http://' or 'https://'")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return NewValidationError("Invalid URL format. Please check the URL and try again.")
	}
	if parsed.Host == "" || !strings.Contains(parsed.Host, ".") {
		return NewValidationError("Invalid URL. Please ensure the URL includes a valid domain name.")
	}
	return nil
}

// ExtractURLs pulls http(s) URLs out of a free-form message and validates
// each. Invalid candidates produce user-facing reasons instead of being
// silently dropped.
func ExtractURLs(message string) (valid []string, reasons []string) {
	if message == "" {
		return nil, nil
	}
	for _, candidate := range urlPattern.FindAllString(message, -1) {
		// Trailing punctuation commonly sticks to pasted links.
		candidate = strings.TrimRight(candidate, ".,;)")
		if err := ValidateURL(candidate); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				reasons = append(reasons, ve.Reason)
			}
			continue
		}
		valid = append(valid, candidate)
	}
	return valid, reasons
}
