// Package hub fans out a live entry stream to several consumers.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/logging"
	"github.com/atikulmunna/sift/internal/model"
)

const subscriberBuffer = 1024

type subscriber struct {
	ch chan model.LogEntry
	// lossless subscribers apply backpressure instead of dropping.
	lossless bool
}

// Hub receives parsed entries and broadcasts them to all subscribers.
type Hub struct {
	input       <-chan model.LogEntry
	log         *zap.Logger
	mu          sync.RWMutex
	subscribers []subscriber
	dropped     atomic.Int64
}

// New creates a Hub that reads from the input channel.
func New(input <-chan model.LogEntry, log *zap.Logger) *Hub {
	return &Hub{
		input: input,
		log:   logging.OrNop(log),
	}
}

// Subscribe returns a buffered channel that receives every entry. When the
// buffer is full the hub waits for the consumer, slowing the whole stream.
// Subscribe before calling Start.
func (h *Hub) Subscribe() <-chan model.LogEntry {
	return h.add(true)
}

// SubscribeLossy returns a buffered channel for consumers that may miss
// entries, such as live metrics. Entries that do not fit are dropped and
// counted in Dropped.
func (h *Hub) SubscribeLossy() <-chan model.LogEntry {
	return h.add(false)
}

func (h *Hub) add(lossless bool) <-chan model.LogEntry {
	ch := make(chan model.LogEntry, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, subscriber{ch: ch, lossless: lossless})
	h.mu.Unlock()
	return ch
}

// Dropped returns the total number of entries dropped for lossy subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Start broadcasts until the context is cancelled or the input channel is
// closed. Subscriber channels are closed on return.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-h.input:
			if !ok {
				return
			}
			if !h.broadcast(ctx, entry) {
				return
			}
		}
	}
}

// broadcast sends an entry to all subscribers. It returns false when ctx is
// cancelled while waiting on a lossless subscriber.
func (h *Hub) broadcast(ctx context.Context, entry model.LogEntry) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		if sub.lossless {
			select {
			case sub.ch <- entry:
			case <-ctx.Done():
				return false
			}
			continue
		}
		select {
		case sub.ch <- entry:
		default:
			n := h.dropped.Add(1)
			h.log.Debug("dropped entry for slow consumer",
				zap.Int("line", entry.LineNumber),
				zap.Int64("total_dropped", n))
		}
	}
	return true
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subscribers {
		close(sub.ch)
	}
	h.subscribers = nil
}
