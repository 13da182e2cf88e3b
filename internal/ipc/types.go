package ipc

import (
	"image"
	"os"
)

// ManagerInterface is what the control plane needs from the compositor.
type ManagerInterface interface {
	Stop()
	WindowCount() int
	RootSize() (int, int)
	Screenshot() (image.Image, error)
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type StatusResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Version    string `json:"version"`
	PID        int    `json:"pid"`
	Socket     string `json:"socket"`
	Config     string `json:"config"`
	Windows    int    `json:"windows"`
	RootWidth  int    `json:"root_width"`
	RootHeight int    `json:"root_height"`
}

// SocketPath is where the daemon listens; per-user under XDG_RUNTIME_DIR
// when the session provides one.
func SocketPath() string {
	sockDir := os.Getenv("XDG_RUNTIME_DIR")
	if sockDir == "" {
		sockDir = os.TempDir()
	}
	return sockDir + "/compton.sock"
}
