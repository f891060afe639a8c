package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const deliveryTimeout = 10 * time.Second

// AsyncDispatcher delivers messages from an in-process queue on background workers.
type AsyncDispatcher struct {
	deliverer *Deliverer
	queue     chan Message
	log       *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncDispatcher(d *Deliverer, workers, buffer int, log *slog.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if log == nil {
		log = slog.Default()
	}
	a := &AsyncDispatcher{
		deliverer: d,
		queue:     make(chan Message, buffer),
		log:       log,
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.work()
	}
	return a
}

// Dispatch enqueues msg without waiting; a full queue drops the message.
func (a *AsyncDispatcher) Dispatch(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.deliverer.Drop(ctx, msg, ErrDispatcherClosed)
		return
	}
	select {
	case a.queue <- msg:
	default:
		a.deliverer.Drop(ctx, msg, ErrQueueFull)
	}
}

func (a *AsyncDispatcher) work() {
	defer a.wg.Done()
	for msg := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		_ = a.deliverer.Deliver(ctx, msg)
		cancel()
	}
}

// Close stops accepting messages and waits for queued ones until ctx expires.
func (a *AsyncDispatcher) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		a.log.Warn("notification queue not drained before shutdown", "pending", len(a.queue))
		return ctx.Err()
	}
}
