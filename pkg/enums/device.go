package enums

import (
	"fmt"
	"strings"
)

// Device selects which provider redirect URL a shopper is sent to.
type Device string

const (
	DevicePC     Device = "pc"
	DeviceMobile Device = "mobile"
)

// String implements fmt.Stringer.
func (d Device) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Device.
func (d Device) IsValid() bool {
	return d == DevicePC || d == DeviceMobile
}

// ParseDevice converts raw input into a Device.
func ParseDevice(value string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(DevicePC):
		return DevicePC, nil
	case string(DeviceMobile):
		return DeviceMobile, nil
	}
	return "", fmt.Errorf("invalid device %q", value)
}
