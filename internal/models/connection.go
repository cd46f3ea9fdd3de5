package models

// ConnectionState represents the Wi-Fi link state owned by the connectivity
// monitor and observed by the other services through the state store.
type ConnectionState string

const (
	// ConnectionDisconnected means the interface has no association.
	ConnectionDisconnected ConnectionState = "disconnected"
	// ConnectionConnecting means an association attempt is in progress.
	ConnectionConnecting ConnectionState = "connecting"
	// ConnectionConnected means the interface is associated and usable.
	ConnectionConnected ConnectionState = "connected"
)
