// internal/ua/ua.go
//
// User-Agent parsing.
//
// Wraps github.com/avct/uasurfer so its enums stay inside this package.
// requestinfo embeds Info in every page request; the access log and the
// sign-in log read Label.
package ua

import (
	"fmt"
	"strings"

	surfer "github.com/avct/uasurfer"
)

// Device classes.
const (
	Desktop = "Desktop"
	Mobile  = "Mobile"
	Tablet  = "Tablet"
	Bot     = "Bot"
	Other   = "Other"
)

// Info is the subset of a parsed User-Agent the app uses.
type Info struct {
	Browser   string // "Chrome", "Safari", …
	Version   string // "124.0.6367", trailing zero parts dropped
	OS        string // "Windows", "iOS", …
	OSVersion string
	Device    string // one of the device class constants
	Platform  string // "Mac", "iPhone", …
	IsBot     bool
	Raw       string
}

var devices = map[surfer.DeviceType]string{
	surfer.DeviceComputer: Desktop,
	surfer.DeviceTablet:   Tablet,
	surfer.DevicePhone:    Mobile,
	surfer.DeviceWearable: Mobile,
}

// Parse reads a raw User-Agent header.
func Parse(raw string) Info {
	u := surfer.Parse(raw)
	info := Info{
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   version(u.Browser.Version),
		OS:        strings.TrimPrefix(u.OS.Name.String(), "OS"),
		OSVersion: version(u.OS.Version),
		Platform:  strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:     u.IsBot(),
		Raw:       raw,
	}
	switch d, ok := devices[u.DeviceType]; {
	case info.IsBot:
		info.Device = Bot
	case ok:
		info.Device = d
	default:
		info.Device = Other
	}
	return info
}

// Label is a short human description such as "Chrome 124 on Windows
// (Desktop)".  Empty headers give "".
func (i Info) Label() string {
	if i.Raw == "" {
		return ""
	}
	b := i.Browser
	if major, _, _ := strings.Cut(i.Version, "."); major != "" {
		b += " " + major
	}
	return fmt.Sprintf("%s on %s (%s)", b, i.OS, i.Device)
}

// version renders 17.0.0 as "17", 17.3.0 as "17.3", and 17.3.1 as "17.3.1".
func version(v surfer.Version) string {
	switch {
	case v.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	case v.Major != 0:
		return fmt.Sprintf("%d", v.Major)
	}
	return ""
}
