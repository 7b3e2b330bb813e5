package model

import "time"

// Device is a client that exchanged the host's pairing code for a token.
// Revoking a device (deleting the row) invalidates every token issued to it.
type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	PairedAt time.Time `json:"pairedAt"`
	LastSeen time.Time `json:"lastSeen"`
}
