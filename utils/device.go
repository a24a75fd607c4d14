package utils

import (
	"fmt"
	"strings"

	ua "github.com/mileusna/useragent"
)

// DeviceSummary condenses a User-Agent header into a short label shown to
// responders, e.g. "Safari on iOS (Mobile)". Best-effort only.
func DeviceSummary(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	parsedUA := ua.Parse(userAgent)

	browser := parsedUA.Name
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := parsedUA.OS
	if os == "" {
		os = "Unknown OS"
	}

	device := "Desktop"
	if parsedUA.Mobile {
		device = "Mobile"
	} else if parsedUA.Tablet {
		device = "Tablet"
	}

	return strings.TrimSpace(fmt.Sprintf("%s on %s (%s)", browser, os, device))
}
