package glx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugMessageLine(t *testing.T) {
	line := debugMessageLine(0x8246, 0x824C, 7, 0x9146, "GL_INVALID_OPERATION in glDrawBuffers")

	assert.Equal(t,
		`GL: source 0x8246, type 0x824c, id 7, severity 0x9146, "GL_INVALID_OPERATION in glDrawBuffers"`,
		line)
}
