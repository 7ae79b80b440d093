// Package worker provides a small helper embeddable type for managing the
// lifecycle of one or more goroutines belonging to a single component.
package worker

import "sync"

// Worker is embedded by types that own background goroutines. Callers
// launch goroutines with Go; the goroutines watch HaltCh, and Halt closes
// it and waits for them to return.
type Worker struct {
	haltOnce sync.Once
	haltCh   chan struct{}
	wg       sync.WaitGroup
}

func (w *Worker) init() {
	if w.haltCh == nil {
		w.haltCh = make(chan struct{})
	}
}

// HaltCh returns the channel that is closed when Halt is called.
func (w *Worker) HaltCh() chan struct{} {
	w.init()
	return w.haltCh
}

// Go launches fn in a new goroutine tracked by this Worker.
func (w *Worker) Go(fn func()) {
	w.init()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

// Halt closes HaltCh, signalling all tracked goroutines to stop, and blocks
// until they have returned. Safe to call more than once.
func (w *Worker) Halt() {
	w.init()
	w.haltOnce.Do(func() {
		close(w.haltCh)
	})
	w.wg.Wait()
}

// Done reports whether Halt has been called.
func (w *Worker) Done() bool {
	w.init()
	select {
	case <-w.haltCh:
		return true
	default:
		return false
	}
}
