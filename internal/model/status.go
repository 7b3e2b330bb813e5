package model

// HostStatus is the body of GET /status.
type HostStatus struct {
	IsServerRunning bool   `json:"isServerRunning"`
	AccentColor     string `json:"accentColor"`
	ThemeMode       string `json:"themeMode"` // "dark" or "light"
	IPAddress       string `json:"ipAddress,omitempty"`
	Port            int    `json:"port,omitempty"`
}

// Dark reports whether the host asks for the dark theme.
func (s HostStatus) Dark() bool { return s.ThemeMode == "dark" }
