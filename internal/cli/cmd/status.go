package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/doczir/compton/internal/cli/cmd/utils"
	"github.com/doczir/compton/internal/ipc"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get compton status",
		Long:  `Returns the current status of the compton process.`,
		Run: func(c *cobra.Command, args []string) {
			response, err := ipc.Status()
			if err != nil {
				log.Errorf("Error sending command: %v", err)
				return
			}

			utils.PrintJSONColored(response)
		},
	}
}
