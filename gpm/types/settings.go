package types

// Settings is the account settings document served by the loadsettings
// endpoint. The endpoint declares text/plain but the body is JSON.
type Settings struct {
	IsSubscription bool     `json:"isSubscription"`
	Devices        []Device `json:"devices"`
}
