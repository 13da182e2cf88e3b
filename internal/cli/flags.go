package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func RegisterFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/compton/compton.toml)")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().BoolP("installconfig", "i", false, "Install a default config file")
	rootCmd.PersistentFlags().Bool("show-config", false, "Dump resolved config")
	rootCmd.PersistentFlags().BoolP("background", "b", false, "Run as a daemon")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Print version")
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Print usage")

	rootCmd.PersistentFlags().String("backend", "glx", "Rendering backend (xrender, glx, xr_glx_hybrid)")
	viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	rootCmd.PersistentFlags().String("blur-method", "none", "Background blur method (none, conv, kawase)")
	viper.BindPFlag("blur_method", rootCmd.PersistentFlags().Lookup("blur-method"))
	rootCmd.PersistentFlags().Float64("opacity", 1.0, "Window opacity (0.0-1.0)")
	viper.BindPFlag("opacity", rootCmd.PersistentFlags().Lookup("opacity"))
	rootCmd.PersistentFlags().Bool("invert-color", false, "Invert window colors")
	viper.BindPFlag("invert_color", rootCmd.PersistentFlags().Lookup("invert-color"))
}
