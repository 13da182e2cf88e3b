package cli

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("compton")
		viper.SetConfigType("toml")
		if viper.GetString("config") != "" {
			viper.SetConfigFile(viper.GetString("config"))
		} else {
			viper.AddConfigPath("$HOME/.config/compton")
			viper.AddConfigPath("/etc/xdg/compton")
		}
	}

	viper.SetDefault("backend", "glx")
	viper.SetDefault("blur_method", "none")
	viper.SetDefault("blur_kernels", []string{"3x3:1,1,1,1,1,1,1,1"})
	viper.SetDefault("kawase_iterations", 3)
	viper.SetDefault("kawase_offset", 2.75)
	viper.SetDefault("opacity", 1.0)
	viper.SetDefault("dim", 0.0)
	viper.SetDefault("invert_color", false)
	viper.SetDefault("swap_method", "buffer-age")
	viper.SetDefault("no_stencil", false)
	viper.SetDefault("use_gpushader4", false)
	viper.SetDefault("framerate_limit", 60)
	viper.SetDefault("debug", false)

	viper.AutomaticEnv() // read environment variables that match

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cobra.CheckErr(err)
		}
		log.Debug("no config file found, using defaults")
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
}
