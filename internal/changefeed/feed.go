package changefeed

import (
	"context"
	"errors"
	"sync"

	"zenbudget/internal/core"
	"zenbudget/internal/log"
	"zenbudget/internal/store"
)

var ErrEmptyUser = errors.New("subscribe: empty user id")

// Feed delivers full collection snapshots to subscribers. Every change for a
// user makes the feed re-read the changed collection and hand the whole
// collection to that user's subscribers.
type Feed struct {
	reader store.Reader
	logger *log.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func New(reader store.Reader, logger *log.Logger) *Feed {
	if logger == nil {
		logger = log.Default(log.ComponentChangeFeed)
	}
	return &Feed{
		reader: reader,
		logger: logger.WithComponent(log.ComponentChangeFeed),
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Dispatch wakes the subscribers of c.UserID. It never blocks.
func (f *Feed) Dispatch(c store.Change) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs[c.UserID] {
		s.notify(c.Collection)
	}
}

// Run dispatches every change arriving on bus until ctx is done.
func (f *Feed) Run(ctx context.Context, bus Bus) error {
	return bus.Run(ctx, f.Dispatch)
}

// Subscribers returns the number of live subscriptions for uid.
func (f *Feed) Subscribers(uid string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[uid])
}

// Subscribe registers callbacks for uid. Both receive an initial snapshot,
// then a fresh full snapshot after each change to their collection.
// Callbacks of one subscription run on a single goroutine, never
// concurrently, and must not call Cancel. ctx supplies values for store
// reads; its cancellation does not end the subscription.
func (f *Feed) Subscribe(ctx context.Context, uid string, onTransactions func([]core.Transaction), onCategories func([]core.Category)) (*Subscription, error) {
	if uid == "" {
		return nil, ErrEmptyUser
	}
	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Subscription{
		feed:    f,
		uid:     uid,
		onTx:    onTransactions,
		onCat:   onCategories,
		ctx:     rctx,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	f.mu.Lock()
	if f.subs[uid] == nil {
		f.subs[uid] = make(map[*Subscription]struct{})
	}
	f.subs[uid][s] = struct{}{}
	f.mu.Unlock()

	s.notify(store.CategoriesCollection)
	s.notify(store.TransactionsCollection)
	go s.run()

	f.logger.DebugContext(ctx, "Subscription opened",
		log.FieldOperation, log.OpSubscribe, log.FieldUserID, uid)
	return s, nil
}

func (f *Feed) remove(s *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[s.uid], s)
	if len(f.subs[s.uid]) == 0 {
		delete(f.subs, s.uid)
	}
}

// Subscription is a live registration returned by Feed.Subscribe.
type Subscription struct {
	feed  *Feed
	uid   string
	onTx  func([]core.Transaction)
	onCat func([]core.Category)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	pendingTx  bool
	pendingCat bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (s *Subscription) notify(c store.Collection) {
	s.mu.Lock()
	switch c {
	case store.TransactionsCollection:
		s.pendingTx = true
	case store.CategoriesCollection:
		s.pendingCat = true
	}
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		tx, cat := s.pendingTx, s.pendingCat
		s.pendingTx, s.pendingCat = false, false
		s.mu.Unlock()

		// Categories first so a transaction snapshot never references
		// categories the subscriber has not seen yet.
		if cat && s.onCat != nil {
			cats, err := s.feed.reader.ListCategories(s.ctx, s.uid)
			if err != nil {
				s.logError("Failed to read categories snapshot", store.CategoriesCollection, err)
			} else if !s.cancelled() {
				s.onCat(cats)
			}
		}
		if tx && s.onTx != nil {
			txs, err := s.feed.reader.ListTransactions(s.ctx, s.uid)
			if err != nil {
				s.logError("Failed to read transactions snapshot", store.TransactionsCollection, err)
			} else if !s.cancelled() {
				s.onTx(txs)
			}
		}
	}
}

func (s *Subscription) cancelled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Subscription) logError(msg string, col store.Collection, err error) {
	if s.cancelled() {
		return
	}
	s.feed.logger.ErrorContext(s.ctx, msg, log.FieldOperation, log.OpDeliver,
		log.FieldUserID, s.uid, log.FieldCollection, col, log.FieldError, err)
}

// Cancel stops the subscription. It is safe to call more than once and
// returns only after any in-flight callback has finished; no callback runs
// afterwards.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.done)
		s.cancel()
	})
	<-s.stopped
}

// Done is closed when the subscription has been cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
