// Package usbdiscover enumerates serial adapters attached over USB, so
// a caller can find a RileyLink-compatible bridge's tty device without
// the operator hand-typing a /dev path, the way the retrieved teacher
// reads a stable identity out of the system rather than trusting
// caller-supplied configuration verbatim (deviceid.go's tocalls lookup).
package usbdiscover

import (
	"fmt"

	"github.com/jochenvg/go-udev"
)

// Adapter describes one candidate serial device found on the USB bus.
type Adapter struct {
	DevicePath string
	VendorID   string
	ProductID  string
	Serial     string
}

// Find enumerates tty devices backed by a USB device, optionally
// filtered to a vendor:product ID pair (either may be empty to match
// any value).
func Find(vendorID, productID string) ([]Adapter, error) {
	u := udev.Udev{}
	enum := u.NewEnumerateFromSubsystems([]string{"tty"})

	devices, err := enum.Devices()
	if err != nil {
		return nil, fmt.Errorf("usbdiscover: enumerate tty devices: %w", err)
	}

	var out []Adapter
	for _, d := range devices {
		if d == nil || d.Devnode() == "" {
			continue
		}
		parent := d.ParentWithSubsystemDevtype("usb", "usb_device")
		if parent == nil {
			continue
		}

		vid := parent.PropertyValue("ID_VENDOR_ID")
		pid := parent.PropertyValue("ID_MODEL_ID")
		if vendorID != "" && vid != vendorID {
			continue
		}
		if productID != "" && pid != productID {
			continue
		}

		out = append(out, Adapter{
			DevicePath: d.Devnode(),
			VendorID:   vid,
			ProductID:  pid,
			Serial:     parent.PropertyValue("ID_SERIAL_SHORT"),
		})
	}
	return out, nil
}
