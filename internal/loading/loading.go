package loading

import "sync"

// Bar is the process-wide busy indicator. Start/Stop calls are balanced by
// the services; the bar is visible while at least one operation holds it.
type Bar struct {
	mu     sync.Mutex
	active int
}

func NewBar() *Bar {
	return &Bar{}
}

func (b *Bar) Start() {
	b.mu.Lock()
	b.active++
	b.mu.Unlock()
}

// Stop releases one acquisition. Extra Stops are ignored so an unbalanced
// caller cannot drive the counter negative.
func (b *Bar) Stop() {
	b.mu.Lock()
	if b.active > 0 {
		b.active--
	}
	b.mu.Unlock()
}

func (b *Bar) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active > 0
}
