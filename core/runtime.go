package orchestration

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-voice/core/events"
)

const eventQueueCapacity = 64

type eventQueueItem struct {
	event    events.Event
	queuedAt time.Time
	// reply receives the dispatch result of requests made through the
	// public API. It is nil for events reported by effects.
	reply chan error
}

// eventLoop is the single writer of turn state. Every event, whether a user
// request or an effect reporting back, goes through its queue.
type eventLoop struct {
	queue   chan eventQueueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once
	started   atomic.Bool
}

func newEventLoop() *eventLoop {
	return &eventLoop{
		queue:   make(chan eventQueueItem, eventQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (l *eventLoop) start(process func(eventQueueItem)) {
	l.startOnce.Do(func() {
		if l.isClosed() {
			return
		}
		l.started.Store(true)
		go func() {
			defer close(l.done)
			for {
				select {
				case <-l.closeCh:
					return
				case item := <-l.queue:
					if l.isClosed() {
						if item.reply != nil {
							item.reply <- ErrClosed
						}
						return
					}
					process(item)
				}
			}
		}()
	})
}

// end stops the loop and waits for the event being processed to finish.
func (l *eventLoop) end() {
	l.endOnce.Do(func() {
		close(l.closeCh)
	})
	if l.started.Load() {
		<-l.done
	}
}

func (l *eventLoop) isClosed() bool {
	select {
	case <-l.closeCh:
		return true
	default:
		return false
	}
}

func (l *eventLoop) enqueue(event events.Event) bool {
	return l.enqueueItem(eventQueueItem{event: event, queuedAt: time.Now()})
}

func (l *eventLoop) enqueueItem(item eventQueueItem) bool {
	if l.isClosed() {
		return false
	}
	select {
	case <-l.closeCh:
		return false
	case l.queue <- item:
		return true
	}
}

// request enqueues event and waits for its dispatch result.
func (l *eventLoop) request(event events.Event) error {
	reply := make(chan error, 1)
	if !l.enqueueItem(eventQueueItem{event: event, queuedAt: time.Now(), reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-l.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	}
}
