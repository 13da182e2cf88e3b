package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/doczir/compton/internal/compositor"
	"github.com/doczir/compton/internal/glx"
)

// buildOptions translates the resolved configuration into the session
// options and paint settings.
func buildOptions() (glx.Options, compositor.Settings, error) {
	var opts glx.Options
	var settings compositor.Settings

	backend, err := glx.ParseBackend(viper.GetString("backend"))
	if err != nil {
		return opts, settings, err
	}
	opts.Backend = backend

	method, err := glx.ParseBlurMethod(viper.GetString("blur_method"))
	if err != nil {
		return opts, settings, err
	}
	opts.BlurMethod = method

	if method == glx.BlurConv {
		for _, spec := range viper.GetStringSlice("blur_kernels") {
			kern, err := glx.ParseKernel(spec)
			if err != nil {
				return opts, settings, err
			}
			opts.BlurKernels = append(opts.BlurKernels, kern)
		}
		if len(opts.BlurKernels) == 0 {
			return opts, settings, fmt.Errorf("blur_method conv needs at least one kernel")
		}
	}

	opts.BlurStrength = glx.KawaseStrength{
		Iterations: viper.GetInt("kawase_iterations"),
		Offset:     viper.GetFloat64("kawase_offset"),
	}

	swap, err := glx.ParseSwapMethod(viper.GetString("swap_method"))
	if err != nil {
		return opts, settings, err
	}
	opts.SwapMethod = swap

	opts.NoStencil = viper.GetBool("no_stencil")
	opts.UseGpuShader4 = viper.GetBool("use_gpushader4")
	opts.DebugContext = viper.GetBool("debug")

	settings.Opacity = viper.GetFloat64("opacity")
	if settings.Opacity <= 0 || settings.Opacity > 1 {
		settings.Opacity = 1.0
	}
	settings.Dim = viper.GetFloat64("dim")
	settings.InvertColor = viper.GetBool("invert_color")
	settings.FactorCenter = 1.0
	settings.FramerateLimit = viper.GetInt("framerate_limit")

	return opts, settings, nil
}
