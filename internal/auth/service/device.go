package service

import (
	"strings"

	"github.com/mssola/useragent"
)

// deviceFrom condenses a raw User-Agent header into a short display string
// for session records, e.g. "Chrome 120.0.0.0 on Intel Mac OS X 10_15_7".
func deviceFrom(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	device := strings.TrimSpace(name + " " + version)
	if os := ua.OS(); os != "" {
		if device == "" {
			return os
		}
		device += " on " + os
	}
	if device == "" {
		// Agents the parser cannot place keep the raw header.
		return rawUA
	}
	return device
}
