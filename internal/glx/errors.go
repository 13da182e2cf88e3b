package glx

import "fmt"

// CapabilityError means a required GLX/GL extension, visual or pixel format
// is missing. It is fatal to initialization; the caller is expected to fall
// back to the non-accelerated backend or abort.
type CapabilityError struct {
	Missing string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("glx: missing capability: %s", e.Missing)
}

// ResourceAllocationError means a texture, framebuffer, shader or program
// could not be created. The current operation is aborted and partial state
// released; the caller typically skips the frame or the effect.
type ResourceAllocationError struct {
	Resource string
}

func (e *ResourceAllocationError) Error() string {
	return fmt.Sprintf("glx: failed to allocate %s", e.Resource)
}

// CompileLinkError carries the driver diagnostic log for a failed shader
// compile or program link. Fatal to the program being built, not the session.
type CompileLinkError struct {
	Stage string // "compile" or "link"
	Log   string
}

func (e *CompileLinkError) Error() string {
	return fmt.Sprintf("glx: shader %s failed: %s", e.Stage, e.Log)
}

// InvalidInputError rejects bad caller input (empty pixmap, depth out of
// range) before any GPU call is made.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("glx: invalid input: %s", e.Reason)
}
