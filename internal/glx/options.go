package glx

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// maxDepth is the highest color depth a pixmap can have; the format
	// table is indexed 0..maxDepth.
	maxDepth = 32

	// maxBlurPass bounds the number of chained blur shader passes. Protocol
	// level invariant, not a tunable.
	maxBlurPass = 5

	// maxBufferAge bounds how many frames back the damage history reaches.
	maxBufferAge = 5
)

type Backend int

const (
	BackendXRender Backend = iota
	BackendGLX
	BackendXRGLXHybrid
)

func ParseBackend(s string) (Backend, error) {
	switch s {
	case "xrender":
		return BackendXRender, nil
	case "glx":
		return BackendGLX, nil
	case "xr_glx_hybrid":
		return BackendXRGLXHybrid, nil
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// NeedsGLXTextures reports whether window pixmaps must be bound as GL
// textures for this backend.
func (b Backend) NeedsGLXTextures() bool {
	return b == BackendGLX || b == BackendXRGLXHybrid
}

type BlurMethod int

const (
	BlurNone BlurMethod = iota
	BlurConv
	BlurKawase
)

func ParseBlurMethod(s string) (BlurMethod, error) {
	switch s {
	case "none", "":
		return BlurNone, nil
	case "conv":
		return BlurConv, nil
	case "kawase":
		return BlurKawase, nil
	}
	return 0, fmt.Errorf("unknown blur method %q", s)
}

// SwapMethod mirrors the glx-swap-method option: how the driver treats the
// back buffer across swaps, which decides whether damage tracing pays off.
type SwapMethod int

const (
	SwapUndefined SwapMethod = iota
	SwapCopy
	SwapExchange
	SwapBufferAge
)

func ParseSwapMethod(s string) (SwapMethod, error) {
	switch s {
	case "undefined", "":
		return SwapUndefined, nil
	case "copy":
		return SwapCopy, nil
	case "exchange":
		return SwapExchange, nil
	case "buffer-age":
		return SwapBufferAge, nil
	}
	return 0, fmt.Errorf("unknown swap method %q", s)
}

// Kernel is a convolution kernel: a W×H grid of weights. W and H must be
// odd; the center element is ignored during shader generation (its weight
// comes in at draw time as factor_center).
type Kernel struct {
	W, H int
	Data []float64
}

// ParseKernel parses the "WxH:v,v,v,..." kernel syntax.
func ParseKernel(s string) (Kernel, error) {
	var k Kernel
	dims, vals, ok := strings.Cut(s, ":")
	if !ok {
		return k, fmt.Errorf("kernel %q: missing ':'", s)
	}
	ws, hs, ok := strings.Cut(dims, "x")
	if !ok {
		return k, fmt.Errorf("kernel %q: dimensions must be WxH", s)
	}
	var err error
	if k.W, err = strconv.Atoi(ws); err != nil {
		return k, fmt.Errorf("kernel %q: bad width: %w", s, err)
	}
	if k.H, err = strconv.Atoi(hs); err != nil {
		return k, fmt.Errorf("kernel %q: bad height: %w", s, err)
	}
	if k.W < 1 || k.H < 1 || k.W%2 == 0 || k.H%2 == 0 {
		return k, fmt.Errorf("kernel %q: dimensions must be positive and odd", s)
	}
	for _, f := range strings.Split(vals, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return k, fmt.Errorf("kernel %q: bad weight %q: %w", s, f, err)
		}
		k.Data = append(k.Data, v)
	}
	// The center weight may be omitted; it is skipped anyway.
	if len(k.Data) != k.W*k.H && len(k.Data) != k.W*k.H-1 {
		return k, fmt.Errorf("kernel %q: want %d weights, got %d", s, k.W*k.H, len(k.Data))
	}
	if len(k.Data) == k.W*k.H-1 {
		center := (k.H/2)*k.W + k.W/2
		k.Data = append(k.Data[:center], append([]float64{0}, k.Data[center:]...)...)
	}
	return k, nil
}

// At returns the weight at column x, row y.
func (k Kernel) At(x, y int) float64 { return k.Data[y*k.W+x] }

// KawaseStrength parameterizes the dual kawase blur: number of down/up
// iterations and the per-step sampling offset.
type KawaseStrength struct {
	Iterations int
	Offset     float64
}

// Options is the configuration slice this core consumes, assembled by the
// caller from its config layer.
type Options struct {
	Backend       Backend
	BlurMethod    BlurMethod
	BlurKernels   []Kernel
	BlurStrength  KawaseStrength
	NoStencil     bool
	SwapMethod    SwapMethod
	UseGpuShader4 bool
	DebugContext  bool
}
