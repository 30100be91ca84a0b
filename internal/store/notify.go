package store

import "sync"

// notifier fans out change signals to subscribers. Sends never block: a
// subscriber that has not drained its channel simply coalesces signals.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: map[int]chan struct{}{}}
}

// Subscribe returns a change channel and a cancel function. Cancel is safe to
// call more than once.
func (n *notifier) Subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
