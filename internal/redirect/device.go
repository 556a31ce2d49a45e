package redirect

import (
	"strings"

	"github.com/angelmondragon/cafe-storefront/pkg/enums"
)

var mobileMarkers = []string{"mobi", "android", "iphone", "ipad", "ipod", "windows phone"}

// DetectDevice classifies a User-Agent header. Anything not recognisably
// mobile is treated as PC.
func DetectDevice(userAgent string) enums.Device {
	ua := strings.ToLower(userAgent)
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return enums.DeviceMobile
		}
	}
	return enums.DevicePC
}

// ResolveDevice prefers an explicit choice and falls back to the User-Agent.
func ResolveDevice(explicit enums.Device, userAgent string) enums.Device {
	if explicit.IsValid() {
		return explicit
	}
	return DetectDevice(userAgent)
}
