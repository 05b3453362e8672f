package filekit

import (
	"sync"
	"time"
)

// ticker advances a session's progress on a fixed interval while a run is
// processing. Each tick is applied only if the session is still on the
// generation the ticker was started for.
type ticker struct {
	done chan struct{}
	once sync.Once
}

func startTicker(s *Session, gen uint64, p Progress) *ticker {
	t := &ticker{done: make(chan struct{})}
	tk := time.NewTicker(p.Interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-tk.C:
				if !s.tick(gen, p) {
					return
				}
			}
		}
	}()
	return t
}

// stop is non-blocking and safe to call more than once.
func (t *ticker) stop() {
	t.once.Do(func() { close(t.done) })
}
