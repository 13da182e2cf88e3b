package compositor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// RootSize is served to the IPC goroutine while the paint loop updates the
// cached geometry after a reinit; both sides must go through m.mu.
func TestRootSizeConcurrentWithResize(t *testing.T) {
	m := &Manager{}
	m.setRootSize(1920, 1080)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.setRootSize(1920+i, 1080+i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			w, h := m.RootSize()
			assert.Equal(t, w-1920, h-1080)
		}
	}()
	wg.Wait()

	w, h := m.RootSize()
	assert.Equal(t, 2919, w)
	assert.Equal(t, 2079, h)
}
