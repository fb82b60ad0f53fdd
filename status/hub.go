package status

import (
	"sync"

	"voiceclip/log"
)

const queueDepth = 8

type subscriber struct {
	name string
	ch   chan Update

	// lossless subscribers queue without bound; ch is unused and wake
	// signals that backlog is non-empty.
	lossless bool
	wake     chan struct{}
	mu       sync.Mutex
	backlog  []Update
}

func (s *subscriber) take() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.backlog
	s.backlog = nil
	return b
}

// Hub fans updates out to indicators. Publish never blocks: each indicator has
// its own bounded queue and, when it falls behind, the oldest pending update
// is discarded so the newest state always gets through. Subscribers added
// with SubscribeAll see every update instead.
type Hub struct {
	mu     sync.Mutex
	subs   []*subscriber
	closed bool
	wg     sync.WaitGroup
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) Subscribe(name string, ind Indicator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	s := &subscriber{name: name, ch: make(chan Update, queueDepth)}
	h.subs = append(h.subs, s)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for u := range s.ch {
			ind.Show(u)
		}
	}()
}

// SubscribeAll registers an indicator that must not miss updates, such as the
// history store. Its queue grows while it lags.
func (h *Hub) SubscribeAll(name string, ind Indicator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	s := &subscriber{name: name, lossless: true, wake: make(chan struct{}, 1)}
	h.subs = append(h.subs, s)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			_, ok := <-s.wake
			for _, u := range s.take() {
				ind.Show(u)
			}
			if !ok {
				return
			}
		}
	}()
}

func (h *Hub) Publish(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, s := range h.subs {
		if s.lossless {
			s.mu.Lock()
			s.backlog = append(s.backlog, u)
			s.mu.Unlock()
			select {
			case s.wake <- struct{}{}:
			default:
			}
			continue
		}
		select {
		case s.ch <- u:
			continue
		default:
		}
		select {
		case <-s.ch:
			log.Warnf("indicator %s lagging, dropped stale update", s.name)
		default:
		}
		select {
		case s.ch <- u:
		default:
		}
	}
}

// Close stops delivery and waits for indicators to drain their queues.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for _, s := range h.subs {
		if s.lossless {
			close(s.wake)
		} else {
			close(s.ch)
		}
	}
	h.mu.Unlock()
	h.wg.Wait()
}
