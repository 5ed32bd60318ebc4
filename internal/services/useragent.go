package services

import (
	"log/slog"
	"strings"

	"github.com/mssola/user_agent"
)

const (
	Unknown = "Unknown"

	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"

	maxAnalyticsFieldLen = 100
)

// DeviceInfo holds the analytics fields derived from a user-agent string.
type DeviceInfo struct {
	DeviceType      string
	Browser         string
	OperatingSystem string
}

var unknownDevice = DeviceInfo{DeviceType: Unknown, Browser: Unknown, OperatingSystem: Unknown}

// UAClassifier turns raw user-agent strings into DeviceInfo. It never panics:
// a failing primary parser degrades to the keyword table.
type UAClassifier struct {
	logger *slog.Logger
	parse  func(string) (DeviceInfo, bool)
}

func NewUAClassifier(logger *slog.Logger) *UAClassifier {
	return &UAClassifier{
		logger: logger,
		parse:  parseWithLibrary,
	}
}

func (c *UAClassifier) Classify(ua string) DeviceInfo {
	if strings.TrimSpace(ua) == "" {
		return unknownDevice
	}

	if c.parse != nil {
		if info, ok := c.tryPrimary(ua); ok {
			return info
		}
	}
	return classifyByKeywords(ua)
}

func (c *UAClassifier) tryPrimary(ua string) (info DeviceInfo, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Warn("UA: parser panicked, using keyword fallback", "panic", r)
			}
			ok = false
		}
	}()
	return c.parse(ua)
}

func parseWithLibrary(raw string) (DeviceInfo, bool) {
	ua := user_agent.New(raw)

	name, version := ua.Browser()
	if name == "" {
		return DeviceInfo{}, false
	}

	lower := strings.ToLower(raw)
	var device string
	switch {
	case ua.Bot():
		device = Unknown
	case ua.Platform() == "iPad" || strings.Contains(lower, "tablet") ||
		(strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")):
		device = DeviceTablet
	case ua.Mobile():
		device = DeviceMobile
	default:
		device = DeviceDesktop
	}

	osInfo := ua.OSInfo()
	osName := osInfo.Name
	if osName == "" {
		osName = Unknown
	}

	return DeviceInfo{
		DeviceType:      device,
		Browser:         truncate(joinNonEmpty(name, version), maxAnalyticsFieldLen),
		OperatingSystem: truncate(joinNonEmpty(osName, osInfo.Version), maxAnalyticsFieldLen),
	}, true
}

func classifyByKeywords(raw string) DeviceInfo {
	ua := strings.ToLower(raw)

	device := DeviceDesktop
	switch {
	case containsAny(ua, "mobile", "android", "iphone", "ipod"):
		device = DeviceMobile
	case containsAny(ua, "ipad", "tablet"):
		device = DeviceTablet
	}

	browser := Unknown
	switch {
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edge"):
		browser = "Chrome"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		browser = "Safari"
	case strings.Contains(ua, "edge"):
		browser = "Edge"
	case containsAny(ua, "opera", "opr"):
		browser = "Opera"
	case containsAny(ua, "msie", "trident"):
		browser = "Internet Explorer"
	}

	os := Unknown
	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case containsAny(ua, "macintosh", "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	case strings.Contains(ua, "android"):
		os = "Android"
	case containsAny(ua, "ios", "iphone", "ipad"):
		os = "iOS"
	}

	return DeviceInfo{DeviceType: device, Browser: browser, OperatingSystem: os}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func joinNonEmpty(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
