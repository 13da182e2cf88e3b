package glx

import (
	"fmt"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/go-gl/gl/v3.2-compatibility/gl"
)

// installDebugCallback routes driver diagnostics through the process log.
// Requires a current context; the callback fires on the context's thread.
func (s *Session) installDebugCallback() {
	if !hasGLExtension("GL_KHR_debug") && !hasGLExtension("GL_ARB_debug_output") {
		log.Warn("debug context requested but the driver exposes no debug output extension")
		return
	}
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.DebugMessageCallback(debugMessageCallback, nil)
}

func debugMessageCallback(source, gltype, id, severity uint32,
	length int32, message string, userParam unsafe.Pointer) {
	log.Debug(debugMessageLine(source, gltype, id, severity, message))
}

func debugMessageLine(source, gltype, id, severity uint32, message string) string {
	return fmt.Sprintf("GL: source %#04x, type %#04x, id %d, severity %#x, %q",
		source, gltype, id, severity, message)
}
