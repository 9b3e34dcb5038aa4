package domain

// DeviceKind mirrors the platform enumeration kinds.
type DeviceKind string

const (
	DeviceAudioInput  DeviceKind = "audioinput"
	DeviceVideoInput  DeviceKind = "videoinput"
	DeviceAudioOutput DeviceKind = "audiooutput"
)

// Device describes a capture or playback device reported by the platform.
type Device struct {
	DeviceID string     `json:"deviceId" mapstructure:"id"`
	GroupID  string     `json:"groupId,omitempty" mapstructure:"group"`
	Kind     DeviceKind `json:"kind" mapstructure:"kind"`
	Label    string     `json:"label" mapstructure:"label"`
}

// IsZero reports whether no device is set.
func (d Device) IsZero() bool { return d.DeviceID == "" }

// FilterDevices returns the devices of the given kind, preserving order.
func FilterDevices(devices []Device, kind DeviceKind) []Device {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
