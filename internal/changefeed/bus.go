// Package changefeed turns store writes into full-collection snapshots
// pushed to subscribers.
package changefeed

import (
	"context"
	"errors"
	"sync"

	"zenbudget/internal/store"
)

var ErrClosed = errors.New("change bus closed")

// Bus carries store changes from writers to the feed of every server
// instance.
type Bus interface {
	store.Publisher
	// Run passes every change to deliver until ctx is done or the bus closes.
	Run(ctx context.Context, deliver func(store.Change)) error
	Close() error
}

// LocalBus is an in-process Bus for single-instance deployments.
type LocalBus struct {
	ch   chan store.Change
	done chan struct{}
	once sync.Once
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus(buffer int) *LocalBus {
	if buffer < 1 {
		buffer = 1
	}
	return &LocalBus{ch: make(chan store.Change, buffer), done: make(chan struct{})}
}

func (b *LocalBus) Publish(ctx context.Context, c store.Change) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	select {
	case b.ch <- c:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *LocalBus) Run(ctx context.Context, deliver func(store.Change)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		case c := <-b.ch:
			deliver(c)
		}
	}
}

func (b *LocalBus) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
