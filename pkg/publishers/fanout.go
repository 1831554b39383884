package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Fanout delivers each event to every configured sink concurrently.
type Fanout struct {
	publishers  []Publisher
	sendTimeout time.Duration
}

// FanoutOption customises a Fanout.
type FanoutOption func(*Fanout)

// WithSendTimeout bounds each sink's Publish call. Zero leaves only the
// caller's context in charge.
func WithSendTimeout(d time.Duration) FanoutOption {
	return func(f *Fanout) {
		if d > 0 {
			f.sendTimeout = d
		}
	}
}

// NewFanout drops nil entries and keeps the rest in order.
func NewFanout(pubs []Publisher, opts ...FanoutOption) *Fanout {
	f := &Fanout{publishers: make([]Publisher, 0, len(pubs))}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Publish sends evt to all sinks and waits for them. It returns how many
// accepted the event together with the joined errors of those that did not,
// reported in configuration order.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	errs := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			sendCtx := ctx
			if f.sendTimeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(ctx, f.sendTimeout)
				defer cancel()
			}
			if err := p.Publish(sendCtx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
			}
		}(i, p)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		}
	}
	return accepted, errors.Join(errs...)
}

// Size returns the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases sinks that hold connections, such as Pub/Sub clients.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
