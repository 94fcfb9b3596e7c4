package utils

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// ParseUserAgent extracts useful information from User-Agent string
func ParseUserAgent(userAgent string) (browser, os, device string) {
	if userAgent == "" {
		return "Unknown Browser", "Unknown OS", "Desktop"
	}

	parsed := ua.Parse(userAgent)

	browser = "Unknown Browser"
	if parsed.Name != "" {
		browser = parsed.Name
	}
	os = "Unknown OS"
	if parsed.OS != "" {
		os = parsed.OS
	}

	switch {
	case parsed.Bot:
		device = "Bot"
	case parsed.Mobile:
		device = "Mobile"
	case parsed.Tablet:
		device = "Tablet"
	default:
		device = "Desktop"
	}

	return strings.TrimSpace(browser), strings.TrimSpace(os), device
}

// ClientLabel renders a parsed user agent as "Browser on OS (Device)".
func ClientLabel(userAgent string) string {
	browser, os, device := ParseUserAgent(userAgent)
	return browser + " on " + os + " (" + device + ")"
}
