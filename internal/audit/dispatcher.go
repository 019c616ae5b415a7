package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type DispatcherConfig struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

// Dispatcher is the Sink used in production. Events are queued and written by
// background workers to every configured Writer. A full queue drops the event.
type Dispatcher struct {
	writers []Writer
	logger  logrus.FieldLogger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	wg     sync.WaitGroup
}

func NewDispatcher(logger logrus.FieldLogger, cfg DispatcherConfig, writers ...Writer) *Dispatcher {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Second
	}

	d := &Dispatcher{
		writers: writers,
		logger:  logger.WithField("component", "audit"),
		timeout: cfg.WriteTimeout,
		queue:   make(chan Event, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.run()
	}

	return d
}

// Record stamps the event and enqueues it without blocking.
func (d *Dispatcher) Record(ctx context.Context, ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.IPAddress == "" && ev.UserAgent == "" {
		meta := RequestMetaFrom(ctx)
		ev.IPAddress = meta.IPAddress
		ev.UserAgent = meta.UserAgent
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WithField("action", ev.Action).Warn("audit dispatcher closed, dropping event")
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.logger.WithFields(logrus.Fields{
			"action":        ev.Action,
			"resource_type": ev.ResourceType,
		}).Error("audit queue full, dropping event")
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.write(ev)
	}
}

func (d *Dispatcher) write(ev Event) {
	for _, w := range d.writers {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := w.Write(ctx, ev)
		cancel()
		if err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": ev.ID,
				"action":   ev.Action,
			}).Error("audit write failed")
		}
	}
}

// Close stops accepting events and waits for queued ones to be written, or for
// ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
