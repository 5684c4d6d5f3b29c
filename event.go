package gridlaunch

import (
	"sync"
	"time"
)

// Event marks a point in a stream. Its timestamp is taken when the stream
// reaches it, not when Record is called, so the interval between two events
// covers exactly the work enqueued between them.
type Event struct {
	mu   sync.Mutex
	at   time.Time
	done chan struct{}
}

// NewEvent creates an unrecorded event.
func NewEvent() *Event {
	return &Event{}
}

// Record enqueues the event on stream. Re-recording an event resets it.
func (e *Event) Record(stream *Stream) error {
	done := make(chan struct{})
	e.mu.Lock()
	e.done = done
	e.at = time.Time{}
	e.mu.Unlock()

	err := stream.submit(streamTask{
		always: true,
		fn: func() error {
			e.mu.Lock()
			e.at = time.Now()
			e.mu.Unlock()
			close(done)
			return nil
		},
	})
	if err != nil {
		e.mu.Lock()
		e.done = nil
		e.mu.Unlock()
	}
	return err
}

// Synchronize blocks until the stream has reached the event.
func (e *Event) Synchronize() error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return NewInvalidArgError("EventSynchronize", "event was never recorded")
	}
	<-done
	return nil
}

// Query reports whether the stream has reached the event.
func (e *Event) Query() bool {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func (e *Event) timestamp() (time.Time, bool) {
	if !e.Query() {
		return time.Time{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.at, true
}

// ElapsedTime returns the time between two completed events.
func ElapsedTime(start, stop *Event) (time.Duration, error) {
	t0, ok := start.timestamp()
	if !ok {
		return 0, ErrEventNotReady
	}
	t1, ok := stop.timestamp()
	if !ok {
		return 0, ErrEventNotReady
	}
	return t1.Sub(t0), nil
}
