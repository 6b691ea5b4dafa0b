package cache

import "sync"

// flightGroup coalesces concurrent computations per key. A miss for a
// key already being computed waits for that computation's result rather
// than running the pipeline again.
type flightGroup struct {
	mu     sync.Mutex
	active map[string]*flightCall
}

type flightCall struct {
	done chan struct{}
	val  interface{}
	err  error
}

func newFlightGroup() flightGroup {
	return flightGroup{active: make(map[string]*flightCall)}
}

func (g *flightGroup) do(key string, fn func() (interface{}, error)) (interface{}, error) {
	g.mu.Lock()
	if c, ok := g.active[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err
	}

	c := &flightCall{done: make(chan struct{})}
	g.active[key] = c
	g.mu.Unlock()

	// Release the record even when fn panics: the engine recovers module
	// panics above this layer, and a leaked record would wedge every
	// later caller for the key on <-c.done.
	defer func() {
		g.mu.Lock()
		delete(g.active, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, c.err
}
