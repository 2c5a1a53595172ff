package explorer

import (
	"context"
	"sync"
)

// queryWriter is the persistence capability the hub needs
type queryWriter interface {
	Set(ctx context.Context, query string)
}

// persister writes queries in the background, one at a time.
// Only the latest pending value is kept, so a burst of keystrokes
// collapses into a single write of the final query.
type persister struct {
	store queryWriter

	mu      sync.Mutex
	cond    *sync.Cond
	pending *string
	busy    bool
	closed  bool
	done    chan struct{}
}

func newPersister(store queryWriter) *persister {
	p := &persister{
		store: store,
		done:  make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

func (p *persister) enqueue(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = &query
	p.cond.Broadcast()
}

// flush blocks until every enqueued value has been written
func (p *persister) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pending != nil || p.busy {
		p.cond.Wait()
	}
}

// close writes what is pending and stops the worker
func (p *persister) close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.cond.Broadcast()
	}
	p.mu.Unlock()
	<-p.done
}

func (p *persister) run() {
	defer close(p.done)

	p.mu.Lock()
	for {
		for p.pending == nil && !p.closed {
			p.cond.Wait()
		}
		if p.pending == nil {
			p.mu.Unlock()
			return
		}

		query := *p.pending
		p.pending = nil
		p.busy = true
		p.mu.Unlock()

		p.store.Set(context.Background(), query)

		p.mu.Lock()
		p.busy = false
		p.cond.Broadcast()
	}
}
