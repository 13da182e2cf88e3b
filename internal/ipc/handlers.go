package ipc

import (
	"bytes"
	"image/png"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/doczir/compton"
)

// GET /status
func statusHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		w, h := m.RootSize()
		return c.JSONPretty(http.StatusOK, StatusResponse{
			Status:     "ok",
			Message:    "compton is running",
			Version:    strings.Trim(compton.Version, "\n\r "),
			PID:        os.Getpid(),
			Socket:     SocketPath(),
			Config:     viper.ConfigFileUsed(),
			Windows:    m.WindowCount(),
			RootWidth:  w,
			RootHeight: h,
		}, "  ")
	}
}

// POST /stop
func stopHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		m.Stop()
		return c.JSON(http.StatusOK, Response{Status: "ok", Message: "stopping"})
	}
}

// POST /screenshot
func screenshotHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		img, err := m.Screenshot()
		if err != nil {
			return c.JSON(http.StatusInternalServerError,
				Response{Status: "error", Message: err.Error()})
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return c.JSON(http.StatusInternalServerError,
				Response{Status: "error", Message: err.Error()})
		}
		return c.Blob(http.StatusOK, "image/png", buf.Bytes())
	}
}
