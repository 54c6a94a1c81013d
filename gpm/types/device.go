package types

const (
	DeviceTypePhone = "PHONE"
	DeviceTypeIOS   = "IOS"
)

// Device is a device registration from the account settings document. Only
// PHONE and IOS registrations are authorized to mint stream URLs.
type Device struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (d Device) Mobile() bool {
	return d.Type == DeviceTypePhone || d.Type == DeviceTypeIOS
}
