package services

import (
	"fmt"

	ua "github.com/mileusna/useragent"
	"github.com/pushp314/qrtrack-backend/pkg/logger"
)

const (
	familyUnknown    = "Unknown"
	familyParseError = "Parse Error"
)

// DeviceInfo is the structured result of classifying a User-Agent header.
// Family/version fields fall back to "Unknown" rather than empty strings so
// analytics grouping never produces blank buckets.
type DeviceInfo struct {
	DeviceFamily   string
	OSFamily       string
	OSVersion      string
	BrowserFamily  string
	BrowserVersion string

	IsMobile bool
	IsTablet bool
	IsPC     bool
	IsBot    bool
}

// Classify parses a raw User-Agent string into DeviceInfo. It never returns
// an error and never panics: scan recording must not die on hostile input.
//
// Policy defaults: a missing/empty UA is presumed to be a PC, not a bot.
// A non-empty UA the parser can make nothing of is flagged "Parse Error"
// with all device classes false, so garbage stays distinguishable from
// absence in the scan log.
func Classify(rawUserAgent string) (info DeviceInfo) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("user_agent", rawUserAgent).
				Msg("User-agent parser panicked")
			info = DeviceInfo{
				DeviceFamily:   familyParseError,
				OSFamily:       familyUnknown,
				OSVersion:      familyUnknown,
				BrowserFamily:  familyUnknown,
				BrowserVersion: familyUnknown,
			}
		}
	}()

	if rawUserAgent == "" {
		return DeviceInfo{
			DeviceFamily:   familyUnknown,
			OSFamily:       familyUnknown,
			OSVersion:      familyUnknown,
			BrowserFamily:  familyUnknown,
			BrowserVersion: familyUnknown,
			IsPC:           true,
		}
	}

	parsed := ua.Parse(rawUserAgent)

	// Nothing recognized at all: treat as a parse failure, not an unknown PC.
	// The parser echoes the raw token back as Name for unrecognized strings,
	// so Name alone proves nothing; no OS, no device and no device class set
	// means it made no sense of the input.
	if parsed.OS == "" && parsed.Device == "" &&
		!parsed.Mobile && !parsed.Tablet && !parsed.Desktop && !parsed.Bot {
		return DeviceInfo{
			DeviceFamily:   familyParseError,
			OSFamily:       familyUnknown,
			OSVersion:      familyUnknown,
			BrowserFamily:  familyUnknown,
			BrowserVersion: familyUnknown,
		}
	}

	return DeviceInfo{
		DeviceFamily:   orUnknown(parsed.Device),
		OSFamily:       orUnknown(parsed.OS),
		OSVersion:      orUnknown(parsed.OSVersion),
		BrowserFamily:  orUnknown(parsed.Name),
		BrowserVersion: orUnknown(parsed.Version),
		IsMobile:       parsed.Mobile,
		IsTablet:       parsed.Tablet,
		IsPC:           parsed.Desktop,
		IsBot:          parsed.Bot,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return familyUnknown
	}
	return s
}
