package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/doczir/compton/internal/ipc"
)

func NewScreenshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screenshot [output.png]",
		Short: "Capture the composited screen to a PNG file",
		Args:  cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			data, err := ipc.Screenshot()
			if err != nil {
				log.Fatalf("Failed to capture screenshot: %v", err)
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				log.Fatalf("Failed to write %s: %v", args[0], err)
			}
			log.Infof("Wrote %s (%d bytes)", args[0], len(data))
		},
	}
}
