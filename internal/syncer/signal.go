package syncer

import "sync"

// Counter is the shared pending-count signal: a single integer written only
// by the Manager and observed by the rest of the application. Watchers get
// coalesced updates; a slow watcher sees the latest value, not every
// intermediate one.
type Counter struct {
	mu    sync.Mutex
	value int
	subs  []chan int
}

func NewCounter() *Counter {
	return &Counter{}
}

// Get returns the last published value.
func (c *Counter) Get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set publishes a new value to every watcher without blocking: a pending
// unread update is replaced by the newer one.
func (c *Counter) Set(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	for _, ch := range c.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Watch registers a new watcher. The channel has a one-element buffer and
// immediately carries the current value.
func (c *Counter) Watch() <-chan int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan int, 1)
	ch <- c.value
	c.subs = append(c.subs, ch)
	return ch
}
